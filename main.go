package main

import "github.com/TLSLime/Puppeteer/cmd"

func main() {
	cmd.Execute()
}
