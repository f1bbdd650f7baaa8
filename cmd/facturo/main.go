// Package main is the entry point for the facturo invoicing server.
package main

func main() {
	Execute()
}
