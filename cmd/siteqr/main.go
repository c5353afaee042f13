// Command siteqr issues and checks encrypted monitoring site tokens.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
