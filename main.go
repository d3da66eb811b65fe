package main

import "wishlist-tracker/commands"

func main() {
	commands.Execute()
}
