package main

import "github.com/dbsmedya/wikietl/cmd/wikietl/cmd"

func main() {
	cmd.Execute()
}
