// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the video ingestion backend server.
//
// The application runs a Gin web server exposing a small REST API for video
// status reads and file uploads, instrumented with OpenTelemetry for
// logging, tracing, and metrics. The real work happens in the background:
// Pub/Sub listeners react to storage finalize events and drive the video
// ingestion workflow (validation, transcription, enrichment, persistence).
//
// Functions:
//   - main: Sets up configuration, telemetry, state, routes, listeners, and
//     graceful shutdown.
//   - VideoRouter: Registers the read-only video status endpoint.
//   - FileUpload: Registers the multipart upload endpoint that stages files
//     into the video input bucket.
package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
	"github.com/clipmind/gcp-go-video-ingest/internal/telemetry"
)

// main is the primary entry point for the application. It orchestrates the
// setup of logging, telemetry, configuration, cloud services, the web
// server, API routes, and background listeners, and handles graceful
// shutdown on an interrupt signal.
func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	otelShutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	// Flush buffered telemetry on the way out.
	defer func() { _ = otelShutdown(context.Background()) }()
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("video-ingest-server"))
	// Permissive CORS, suitable for development.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		VideoRouter(apiV1)
		FileUpload(apiV1)
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give active requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// VideoRouter sets up the read-only API routes for video records. The
// document's processingStatus and processingError fields are the documented
// way for external observers to follow a pipeline run, so the only endpoint
// is a straight document read.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the video routes will be added.
//
// This function defines the following endpoint:
//   - GET /videos/:id: Retrieves the full video record by its id.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		videos.GET("/:id", func(c *gin.Context) {
			id := c.Param("id")
			out, err := state.videoStore.Get(c, id)
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

// FileUpload sets up the route for handling file uploads.
//
// The endpoint accepts multipart/form-data with one or more files under the
// "files" field and streams each into the video input bucket under the
// videos/ prefix, preserving the client's declared content type. Writing
// the object is all this handler does; ingestion starts when the bucket's
// finalize notification arrives on the subscription.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the upload route will be added.
func FileUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		upload.POST("", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			bucket := state.cloud.StorageClient.Bucket(state.config.Storage.VideoInputBucket)

			uploaded := make([]string, 0, len(files))
			for _, file := range files {
				name := file.Filename
				if name == "" {
					// No client name means no derivable video id; generate one.
					name = uuid.NewString() + ".mp4"
				}
				objectName := model.VideoPathPrefix + path.Base(name)

				src, err := file.Open()
				if err != nil {
					c.String(http.StatusBadRequest, "open upload err: %s", err.Error())
					return
				}

				writer := bucket.Object(objectName).NewWriter(c)
				writer.ContentType = file.Header.Get("Content-Type")
				if _, err := io.Copy(writer, src); err != nil {
					_ = src.Close()
					c.String(http.StatusInternalServerError, "write object err: %s", err.Error())
					return
				}
				_ = src.Close()
				if err := writer.Close(); err != nil {
					c.String(http.StatusInternalServerError, "close object err: %s", err.Error())
					return
				}
				uploaded = append(uploaded, objectName)
			}

			c.JSON(http.StatusOK, gin.H{"uploaded": uploaded})
		})
	}
}
