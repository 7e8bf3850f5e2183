// Copyright 2026 The capacitor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/golang/glog"

	"github.com/chu11/capacitor/config"
	"github.com/chu11/capacitor/server"
	"github.com/chu11/capacitor/supply"
	"github.com/chu11/capacitor/version"
)

const capdDescription = "capd launches a batch of compute jobs against a cluster backend, allocating ranks and cores to each job and tracking it until completion."

func main() {
	printVersion := flag.Bool("version", false, "Print the version and exit")
	cfgPath := flag.String("config", "", "Path to config file")
	jobFile := flag.String("jobfile", "", "Path to the YAML job batch file to launch")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\nUsage of %s:\n", capdDescription, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *printVersion {
		fmt.Println("capd version", version.Version)
		os.Exit(0)
	}

	if *jobFile == "" {
		fmt.Fprintln(os.Stderr, "no -jobfile provided")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := getConfig(*cfgPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Infof("Starting capd version %v", version.Version)

	srv, err := server.New(*cfg)
	if err != nil {
		log.Fatalf("Failed creating Server: %v", err)
	}

	listenForSignals()

	allDone, err := srv.Run(&supply.FileSupplier{Path: *jobFile})
	if err != nil {
		log.Fatalf("Scheduler loop failed: %v", err)
	}

	if !allDone {
		fmt.Println("some jobs did not finish")
		os.Exit(1)
	}
	fmt.Println("all jobs complete")
}

func getConfig(path string) (*config.Config, error) {
	cfg := config.NewConfig()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("unable to open config file %s: %v", path, err)
		}
		defer f.Close()
		if err := config.UpdateConfigFromFile(cfg, f); err != nil {
			return nil, fmt.Errorf("unable to parse config file %s: %v", path, err)
		}
	}

	config.UpdateFlagsFromConfig(cfg)
	return cfg, nil
}

func listenForSignals() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-c
		log.Infof("Received %v, shutting down", sig)
		fmt.Println("some jobs did not finish")
		os.Exit(1)
	}()
}
