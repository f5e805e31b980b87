package main

import "github.com/shouni/go-doc-exact/cmd"

func main() {
	cmd.Execute()
}
