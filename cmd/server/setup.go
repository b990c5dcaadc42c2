// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main contains the setup and initialization logic for the
// application's state. This file creates the centralized state manager that
// holds all shared dependencies: configuration, cloud service clients, and
// the persistence services.
//
// Functions:
//   - SetupOS: Points the configuration loader at the configs directory.
//   - GetConfig: Singleton loader for the TOML configuration.
//   - InitState: Creates all service clients, wires the persistence
//     services, starts the sweeper, and starts the Pub/Sub listeners.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/services"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/workflow"
)

// StateManager holds all the shared dependencies for the application, acting
// as a centralized container for service clients and configuration. This
// avoids global variables and keeps dependency management in one place.
type StateManager struct {
	config             *cloud.Config
	cloud              *cloud.ServiceClients
	videoStore         *services.FirestoreVideoStore
	secondBrainService *services.FirestoreSecondBrainService
}

// state is the single package-level instance of StateManager.
var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the TOML files. The runtime environment is only defaulted, so a
// deployment can still select its own overlay with GCP_RUNTIME.
//
// Outputs:
//   - error: An error if setting any of the environment variables fails.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig provides a singleton instance of the application configuration.
// The first call sets up the environment and loads the TOML files;
// subsequent calls return the cached configuration.
//
// Outputs:
//   - *cloud.Config: A pointer to the loaded application configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the entire application state: cloud clients, the
// persistence services, the optional stuck-record sweeper, and the Pub/Sub
// listeners that drive the ingestion workflow.
//
// Inputs:
//   - ctx: The root context.Context for the application, which manages the
//     lifecycle of client connections and background processes.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.videoStore = services.NewFirestoreVideoStore(
		cloudClients.FirestoreClient, config.Firestore.VideosCollection)
	state.secondBrainService = services.NewFirestoreSecondBrainService(
		cloudClients.FirestoreClient, config.Firestore.SecondBrainCollection)

	// The sweeper is disabled unless an interval is configured, so the
	// default deployment keeps the reference semantics of leaving stuck
	// records untouched.
	sweeper := workflow.NewStuckRecordSweeper(
		state.videoStore,
		time.Duration(config.Sweeper.SweepIntervalInSeconds)*time.Second,
		time.Duration(config.Sweeper.StuckAfterSeconds)*time.Second)
	sweeper.Start(ctx)

	SetupListeners(config, cloudClients, ctx)
}
