package main

import "gochat/server"

func main() {
	server.Main()
}
