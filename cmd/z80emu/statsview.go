package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const (
	statsviewAddress = "localhost:12600"
	statsviewURL     = "/debug/statsview"
)

// launchStatsview serves runtime charts in a new goroutine.
func launchStatsview(addr string, output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, statsviewURL)
}
