// Package main is the subsidyscout command line.
//
// Usage:
//
//	subsidyscout analyze <url>
//	subsidyscout serve --config config/config.yaml
package main

func main() {
	Execute()
}
