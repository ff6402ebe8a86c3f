package main

import (
	"github.com/Yunitra/AnyDownloadManager/cmd"
)

func main() {
	cmd.Execute()
}
