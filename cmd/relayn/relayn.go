package main

import (
	"math/rand"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/kiosk404/relayn/internal/relayn"
)

func main() {
	rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	relayn.NewApp("relayn").Run()
}
