package main

import "event-gallery/internal/app"

func main() {
	app.Run()
}
