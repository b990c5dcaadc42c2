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

// Package cloud provides components for interacting with Google Cloud services.
// This file defines a generic, reusable Pub/Sub message listener. It
// abstracts the mechanics of receiving messages from a subscription and
// delegates the actual processing to a Command.
//
// Logic Flow:
//  1. A PubSubListener is created with a client and a subscription ID.
//  2. A Command (the ingestion chain) is attached to the listener.
//  3. Listen starts a background goroutine that waits for messages.
//  4. Each message is handed to the command inside a fresh chain context.
//  5. The message is acknowledged whether or not the chain succeeded:
//     a failed run ends with the video document in a terminal error state,
//     and the pipeline never retries a stage, so redelivery would only
//     reprocess a record that has already been marked failed.
package cloud

import (
	"context"
	"log"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener encapsulates the components needed to listen to a specific
// Google Cloud Pub/Sub subscription and run a command for each message.
// Listeners have a life-cycle independent of individual API requests, so
// they live with the other cloud components.
type PubSubListener struct {
	client       *pubsub.Client       // The client for interacting with the Pub/Sub service.
	subscription *pubsub.Subscription // The subscription this listener pulls messages from.
	command      cor.Command          // The command to execute for each message received.
}

// NewPubSubListener is the constructor for creating a PubSubListener.
//
// Inputs:
//   - pubsubClient: An authenticated *pubsub.Client.
//   - subscriptionID: The string ID of the subscription.
//   - command: The cor.Command to execute on each message; may be nil and
//     attached later with SetCommand once the workflow is assembled.
//
// Outputs:
//   - *PubSubListener: A pointer to the newly created listener.
//   - error: Reserved for future validation; currently always nil.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)

	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches a command to the listener. Listeners are created
// before the processing chains are assembled, so the command arrives late.
// A command that is already set is never overwritten.
//
// Inputs:
//   - command: The cor.Command to be executed when a message is received.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts the asynchronous message receiving process in a background
// goroutine so it doesn't block the main application thread.
//
// Inputs:
//   - ctx: A context.Context that controls the lifecycle of the listener.
//     Canceling it (e.g. during graceful shutdown) stops message receiving.
func (m *PubSubListener) Listen(ctx context.Context) {
	log.Printf("listening: %s", m.subscription)

	go func() {
		tracer := otel.Tracer("message-listener")

		// Receive blocks and invokes the callback for each message that arrives.
		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))
			slog.Info("received message", "subscription", m.subscription.ID())

			// Each message gets a fresh chain context carrying the raw
			// notification payload as the initial input.
			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
			} else {
				span.SetStatus(codes.Error, "failed")
				for _, e := range chainCtx.GetErrors() {
					slog.Error("error executing chain", "error", e)
				}
			}
			// Ack unconditionally. Failures are terminal on the video
			// document, so redelivery has nothing left to do.
			msg.Ack()

			span.End()
		})

		if err != nil {
			log.Printf("error receiving data: %v", err)
		}
	}()
}
