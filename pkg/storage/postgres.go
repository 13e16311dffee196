package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	grid "github.com/goliatone/go-grid"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Schema creates the tables Postgres reads and writes.
//
//go:embed schema.sql
var Schema string

// PoolOptions tunes the connection pool opened by OpenPostgres.
type PoolOptions struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string, pool PoolOptions) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}
	return db, nil
}

// Postgres stores grids in the tables described by Schema.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgres wraps db.
func NewPostgres(db *sql.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

// Migrate creates the grid tables when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return storageError("migrate", err)
	}
	return nil
}

// LoadGrid returns the record stored under gridID.
func (p *Postgres) LoadGrid(ctx context.Context, gridID string) (grid.Record, error) {
	query := `
		SELECT block_type, block_id, rewriting_class_name, forced_type_code, disabled,
			base_profile_id, global_default_profile_id,
			max_attribute_column_base_id, max_custom_column_base_id,
			var_names, overrides
		FROM grids
		WHERE id = $1
	`
	record := grid.Record{ID: gridID}
	var baseProfile, globalDefault, maxAttribute, maxCustom sql.NullInt64
	var varNames, overrides []byte
	err := p.db.QueryRowContext(ctx, query, gridID).Scan(
		&record.BlockType,
		&record.BlockID,
		&record.RewritingClassName,
		&record.ForcedTypeCode,
		&record.Disabled,
		&baseProfile,
		&globalDefault,
		&maxAttribute,
		&maxCustom,
		&varNames,
		&overrides,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return grid.Record{}, storageError("load grid", fmt.Errorf("%w: id=%s", ErrGridNotFound, gridID))
	}
	if err != nil {
		return grid.Record{}, storageError("load grid", err)
	}
	record.BaseProfileID = intPtr(baseProfile)
	record.GlobalDefaultProfileID = intPtr(globalDefault)
	record.MaxAttributeColumnBaseID = intPtr(maxAttribute)
	record.MaxCustomColumnBaseID = intPtr(maxCustom)
	if err := decodeJSON(varNames, &record.VarNames); err != nil {
		return grid.Record{}, storageError("load grid", err)
	}
	if err := decodeJSON(overrides, &record.Overrides); err != nil {
		return grid.Record{}, storageError("load grid", err)
	}
	return record, nil
}

func (p *Postgres) LoadColumns(ctx context.Context, gridID string, profileID int) ([]grid.Column, error) {
	query := `
		SELECT storage_id, column_id, origin, column_index, sort_order,
			visible, header, width, align, missing
		FROM grid_columns
		WHERE grid_id = $1 AND profile_id = $2
		ORDER BY storage_id
	`
	rows, err := p.db.QueryContext(ctx, query, gridID, profileID)
	if err != nil {
		return nil, storageError("load columns", err)
	}
	defer rows.Close()

	var columns []grid.Column
	for rows.Next() {
		var column grid.Column
		var origin string
		if err := rows.Scan(
			&column.StorageID,
			&column.ID,
			&origin,
			&column.Index,
			&column.Order,
			&column.Visible,
			&column.Header,
			&column.Width,
			&column.Align,
			&column.Missing,
		); err != nil {
			return nil, storageError("load columns", err)
		}
		column.Origin = grid.Origin(origin)
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("load columns", err)
	}
	p.logger.Debug("grid columns fetched", zap.String("grid_id", gridID), zap.Int("profile_id", profileID), zap.Int("count", len(columns)))
	return columns, nil
}

func (p *Postgres) LoadProfiles(ctx context.Context, gridID string) ([]grid.Profile, error) {
	query := `
		SELECT profile_id, name, is_base, restricted, assigned_role_ids, remembered_params
		FROM grid_profiles
		WHERE grid_id = $1
		ORDER BY profile_id
	`
	rows, err := p.db.QueryContext(ctx, query, gridID)
	if err != nil {
		return nil, storageError("load profiles", err)
	}
	defer rows.Close()

	var profiles []grid.Profile
	for rows.Next() {
		var profile grid.Profile
		var assigned, remembered pq.StringArray
		if err := rows.Scan(&profile.ID, &profile.Name, &profile.Base, &profile.Restricted, &assigned, &remembered); err != nil {
			return nil, storageError("load profiles", err)
		}
		profile.AssignedRoleIDs = []string(assigned)
		if remembered != nil {
			profile.RememberedParams = []string(remembered)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("load profiles", err)
	}
	return profiles, nil
}

func (p *Postgres) LoadUserConfigs(ctx context.Context, gridID string) (map[string]grid.UserConfig, error) {
	query := `
		SELECT user_id, default_profile_id, parameters
		FROM grid_user_configs
		WHERE grid_id = $1
	`
	rows, err := p.db.QueryContext(ctx, query, gridID)
	if err != nil {
		return nil, storageError("load user configs", err)
	}
	defer rows.Close()

	configs := map[string]grid.UserConfig{}
	for rows.Next() {
		var userID string
		var defaultProfile sql.NullInt64
		var parameters []byte
		if err := rows.Scan(&userID, &defaultProfile, &parameters); err != nil {
			return nil, storageError("load user configs", err)
		}
		config := grid.UserConfig{DefaultProfileID: intPtr(defaultProfile)}
		if err := decodeJSON(parameters, &config.Parameters); err != nil {
			return nil, storageError("load user configs", err)
		}
		configs[userID] = config
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("load user configs", err)
	}
	return configs, nil
}

func (p *Postgres) LoadRoleConfigs(ctx context.Context, gridID string) (map[string]grid.RoleConfig, error) {
	query := `
		SELECT role_id, default_profile_id, permissions, assigned_profile_ids, parameters
		FROM grid_role_configs
		WHERE grid_id = $1
	`
	rows, err := p.db.QueryContext(ctx, query, gridID)
	if err != nil {
		return nil, storageError("load role configs", err)
	}
	defer rows.Close()

	configs := map[string]grid.RoleConfig{}
	for rows.Next() {
		var roleID string
		var defaultProfile sql.NullInt64
		var permissions, parameters []byte
		var assigned pq.Int64Array
		if err := rows.Scan(&roleID, &defaultProfile, &permissions, &assigned, &parameters); err != nil {
			return nil, storageError("load role configs", err)
		}
		config := grid.RoleConfig{DefaultProfileID: intPtr(defaultProfile)}
		for _, id := range assigned {
			config.AssignedProfileIDs = append(config.AssignedProfileIDs, int(id))
		}
		if err := decodeJSON(permissions, &config.Permissions); err != nil {
			return nil, storageError("load role configs", err)
		}
		if err := decodeJSON(parameters, &config.Parameters); err != nil {
			return nil, storageError("load role configs", err)
		}
		configs[roleID] = config
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("load role configs", err)
	}
	return configs, nil
}

// SaveGrid upserts the record and replaces every collection present in
// snapshot, in one transaction.
func (p *Postgres) SaveGrid(ctx context.Context, snapshot grid.Snapshot) (string, error) {
	record := snapshot.Record
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageError("save grid", err)
	}
	defer tx.Rollback()

	if err := upsertRecord(ctx, tx, record); err != nil {
		return "", storageError("save grid", err)
	}
	if snapshot.Profiles != nil {
		if err := replaceProfiles(ctx, tx, record.ID, snapshot.Profiles); err != nil {
			return "", storageError("save profiles", err)
		}
	}
	if snapshot.Columns != nil {
		if err := replaceColumns(ctx, tx, record.ID, ColumnsProfileID(snapshot), snapshot.Columns); err != nil {
			return "", storageError("save columns", err)
		}
	}
	if snapshot.Users != nil {
		if err := replaceUserConfigs(ctx, tx, record.ID, snapshot.Users); err != nil {
			return "", storageError("save user configs", err)
		}
	}
	if snapshot.Roles != nil {
		if err := replaceRoleConfigs(ctx, tx, record.ID, snapshot.Roles); err != nil {
			return "", storageError("save role configs", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", storageError("save grid", err)
	}
	p.logger.Info("grid saved", zap.String("grid_id", record.ID))
	return record.ID, nil
}

// SaveColumns replaces the columns of one profile.
func (p *Postgres) SaveColumns(ctx context.Context, gridID string, profileID int, columns []grid.Column) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("save columns", err)
	}
	defer tx.Rollback()
	if err := replaceColumns(ctx, tx, gridID, profileID, columns); err != nil {
		return storageError("save columns", err)
	}
	if err := tx.Commit(); err != nil {
		return storageError("save columns", err)
	}
	return nil
}

func (p *Postgres) DeleteGrid(ctx context.Context, gridID string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM grids WHERE id = $1`, gridID)
	if err != nil {
		return storageError("delete grid", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storageError("delete grid", err)
	}
	if affected == 0 {
		return storageError("delete grid", fmt.Errorf("%w: id=%s", ErrGridNotFound, gridID))
	}
	p.logger.Info("grid deleted", zap.String("grid_id", gridID))
	return nil
}

func upsertRecord(ctx context.Context, tx *sql.Tx, record grid.Record) error {
	varNames, err := json.Marshal(record.VarNames)
	if err != nil {
		return err
	}
	overrides, err := json.Marshal(record.Overrides)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO grids (
			id, block_type, block_id, rewriting_class_name, forced_type_code, disabled,
			base_profile_id, global_default_profile_id,
			max_attribute_column_base_id, max_custom_column_base_id,
			var_names, overrides, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (id) DO UPDATE SET
			block_type = EXCLUDED.block_type,
			block_id = EXCLUDED.block_id,
			rewriting_class_name = EXCLUDED.rewriting_class_name,
			forced_type_code = EXCLUDED.forced_type_code,
			disabled = EXCLUDED.disabled,
			base_profile_id = EXCLUDED.base_profile_id,
			global_default_profile_id = EXCLUDED.global_default_profile_id,
			max_attribute_column_base_id = EXCLUDED.max_attribute_column_base_id,
			max_custom_column_base_id = EXCLUDED.max_custom_column_base_id,
			var_names = EXCLUDED.var_names,
			overrides = EXCLUDED.overrides,
			updated_at = NOW()
	`
	_, err = tx.ExecContext(ctx, query,
		record.ID,
		record.BlockType,
		record.BlockID,
		record.RewritingClassName,
		record.ForcedTypeCode,
		record.Disabled,
		nullInt(record.BaseProfileID),
		nullInt(record.GlobalDefaultProfileID),
		nullInt(record.MaxAttributeColumnBaseID),
		nullInt(record.MaxCustomColumnBaseID),
		varNames,
		overrides,
	)
	return err
}

func replaceProfiles(ctx context.Context, tx *sql.Tx, gridID string, profiles []grid.Profile) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM grid_profiles WHERE grid_id = $1`, gridID); err != nil {
		return err
	}
	query := `
		INSERT INTO grid_profiles (grid_id, profile_id, name, is_base, restricted, assigned_role_ids, remembered_params)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, profile := range profiles {
		assigned := profile.AssignedRoleIDs
		if assigned == nil {
			assigned = []string{}
		}
		var remembered any
		if profile.RememberedParams != nil {
			remembered = pq.Array(profile.RememberedParams)
		}
		if _, err := tx.ExecContext(ctx, query,
			gridID, profile.ID, profile.Name, profile.Base, profile.Restricted, pq.Array(assigned), remembered,
		); err != nil {
			return err
		}
	}
	return nil
}

func replaceColumns(ctx context.Context, tx *sql.Tx, gridID string, profileID int, columns []grid.Column) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM grid_columns WHERE grid_id = $1 AND profile_id = $2`, gridID, profileID); err != nil {
		return err
	}
	query := `
		INSERT INTO grid_columns (
			grid_id, profile_id, column_id, origin, column_index, sort_order,
			visible, header, width, align, missing
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, column := range columns {
		if _, err := tx.ExecContext(ctx, query,
			gridID, profileID, column.ID, string(column.Origin), column.Index, column.Order,
			column.Visible, column.Header, column.Width, column.Align, column.Missing,
		); err != nil {
			return err
		}
	}
	return nil
}

func replaceUserConfigs(ctx context.Context, tx *sql.Tx, gridID string, configs map[string]grid.UserConfig) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM grid_user_configs WHERE grid_id = $1`, gridID); err != nil {
		return err
	}
	query := `
		INSERT INTO grid_user_configs (grid_id, user_id, default_profile_id, parameters)
		VALUES ($1, $2, $3, $4)
	`
	for userID, config := range configs {
		parameters, err := json.Marshal(config.Parameters)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, gridID, userID, nullInt(config.DefaultProfileID), parameters); err != nil {
			return err
		}
	}
	return nil
}

func replaceRoleConfigs(ctx context.Context, tx *sql.Tx, gridID string, configs map[string]grid.RoleConfig) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM grid_role_configs WHERE grid_id = $1`, gridID); err != nil {
		return err
	}
	query := `
		INSERT INTO grid_role_configs (grid_id, role_id, default_profile_id, permissions, assigned_profile_ids, parameters)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for roleID, config := range configs {
		permissions, err := json.Marshal(config.Permissions)
		if err != nil {
			return err
		}
		parameters, err := json.Marshal(config.Parameters)
		if err != nil {
			return err
		}
		assigned := make(pq.Int64Array, 0, len(config.AssignedProfileIDs))
		for _, id := range config.AssignedProfileIDs {
			assigned = append(assigned, int64(id))
		}
		if _, err := tx.ExecContext(ctx, query,
			gridID, roleID, nullInt(config.DefaultProfileID), permissions, assigned, parameters,
		); err != nil {
			return err
		}
	}
	return nil
}

func decodeJSON(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
