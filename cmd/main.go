package main

import (
	"os"

	"hospital-frontdesk/cmd/bootstrap"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := bootstrap.NewRootCommand().Execute(); err != nil {
		logrus.Errorf("frontdesk: %v", err)
		os.Exit(1)
	}
}
