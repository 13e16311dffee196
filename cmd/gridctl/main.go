// Command gridctl inspects and edits grid customizations.
package main

func main() {
	Execute()
}
