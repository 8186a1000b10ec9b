package main

import "document-search/cmd"

func main() {
	cmd.Execute()
}
