package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/nestedjar/internal/list"
	"github.com/nguyengg/nestedjar/internal/unpack"
)

var opts struct {
	List   list.Command   `command:"list" alias:"ls" description:"list the entries of a ZIP/JAR archive, optionally descending into nested archives"`
	Unpack unpack.Command `command:"unpack" alias:"x" description:"extract the entries of a ZIP/JAR archive to a directory"`
}

func main() {
	p := flags.NewParser(&opts, flags.Default)

	if _, err := p.Parse(); err != nil && !flags.WroteHelp(err) {
		os.Exit(1)
	}
}
