// Package main provides the entry point for the jssift CLI.
//
// jssift fetches a web page, downloads every external script it references
// and writes the string literals found in reachable code to one text file
// per script.
//
// Usage:
//
//	jssift sift -u https://example.com/
//	jssift compare https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
