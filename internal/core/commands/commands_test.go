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

package commands_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/commands"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
	test "github.com/clipmind/gcp-go-video-ingest/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerToBlobRefParsesNotification(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, test.GetTestVideoUploadMessageText())

	commands.NewTriggerToBlobRef("trigger-test").Execute(ctx)

	assert.False(t, ctx.HasErrors())
	ref, ok := ctx.Get(cor.CtxOut).(*cloud.BlobRef)
	require.True(t, ok)
	assert.Equal(t, "clipmind-video-uploads-test", ref.Bucket)
	assert.Equal(t, "videos/abc123.mp4", ref.Name)
	assert.Equal(t, "video/mp4", ref.ContentType)
}

func TestTriggerToBlobRefIgnoresForeignPrefix(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, test.GetTestUploadMessageText("thumbnails/abc123.png", "image/png"))

	commands.NewTriggerToBlobRef("trigger-test").Execute(ctx)

	// No output and no error: the chain ends quietly.
	assert.False(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestTriggerToBlobRefMalformedPayload(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "this is not json")

	commands.NewTriggerToBlobRef("trigger-test").Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestValidateBlobAcceptsVideo(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/abc123.mp4", ContentType: "application/octet-stream"})
	inspector := &fakeBlobInspector{contentType: "video/quicktime", size: 2048}

	commands.NewValidateBlob("validate-test", inspector).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	ref, ok := ctx.Get(cor.CtxOut).(*cloud.BlobRef)
	require.True(t, ok)
	// The authoritative metadata replaces whatever the notification claimed.
	assert.Equal(t, "video/quicktime", ref.ContentType)
	assert.Equal(t, int64(2048), ref.Size)
}

func TestValidateBlobRejectsNonVideo(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/abc123.mp4", ContentType: "video/mp4"})
	inspector := &fakeBlobInspector{contentType: "text/plain"}

	commands.NewValidateBlob("validate-test", inspector).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestValidateBlobInspectFailure(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/abc123.mp4"})
	inspector := &fakeBlobInspector{err: errors.New("object vanished")}

	commands.NewValidateBlob("validate-test", inspector).Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestCreateVideoRecord(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/abc123.mp4", ContentType: "video/mp4", Size: 99})
	store := newFakeVideoStore()

	commands.NewCreateVideoRecord("create-test", store).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	require.NotNil(t, store.record)
	assert.Equal(t, "abc123", store.record.Id)
	assert.Equal(t, model.StatusUploading, store.record.ProcessingStatus)
	assert.Equal(t, "videos/abc123.mp4", store.record.OriginalFileName)
	assert.Equal(t, "abc123", ctx.Get(cloud.GetVideoIdName()))
}

func TestCreateVideoRecordUnderivableId(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/", ContentType: "video/mp4"})
	store := newFakeVideoStore()

	commands.NewCreateVideoRecord("create-test", store).Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, store.record)
	assert.Nil(t, ctx.Get(cloud.GetVideoIdName()))
}

func TestIssueSignedURLPersistsURL(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/abc123.mp4"})
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	signer := &fakeURLSigner{url: "https://signed.example/abc123"}

	commands.NewIssueSignedURL("sign-test", signer, store, 24*time.Hour).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "https://signed.example/abc123", store.url)
	assert.False(t, store.urlExpiry.IsZero())
	assert.NotNil(t, ctx.Get(cor.CtxOut))
}

func TestIssueSignedURLSignerFailureIsFatal(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/abc123.mp4"})
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	signer := &fakeURLSigner{err: errors.New("signing backend unavailable")}

	commands.NewIssueSignedURL("sign-test", signer, store, 24*time.Hour).Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Empty(t, store.url)
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestDownloadToScratch(t *testing.T) {
	scratch := t.TempDir()
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/abc123.mp4"})
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	downloader := &fakeBlobDownloader{content: []byte("video bytes")}

	commands.NewDownloadToScratch("download-test", downloader, scratch).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	want := filepath.Join(scratch, "abc123.mp4")
	assert.Equal(t, want, ctx.Get(cor.CtxOut))
	assert.Contains(t, ctx.GetTempFiles(), want)
	_, err := os.Stat(want)
	assert.NoError(t, err)
}

func TestDownloadToScratchFailureIsFatal(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, &cloud.BlobRef{Bucket: "b", Name: "videos/abc123.mp4"})
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	downloader := &fakeBlobDownloader{err: errors.New("read timeout")}

	commands.NewDownloadToScratch("download-test", downloader, t.TempDir()).Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
	assert.Empty(t, ctx.GetTempFiles())
}

func TestExtractAudioRunsTranscoder(t *testing.T) {
	scratch := t.TempDir()
	videoPath := filepath.Join(scratch, "abc123.mp4")
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, videoPath)
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	runner := &fakeCommandRunner{}

	commands.NewExtractAudio("audio-test", runner, store, "/usr/bin/ffmpeg", scratch).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, []model.ProcessingStatus{model.StatusTranscribing}, store.statuses)
	assert.Equal(t, "/usr/bin/ffmpeg", runner.name)
	assert.Contains(t, runner.args, "-vn")
	assert.Contains(t, runner.args, videoPath)

	audioPath := filepath.Join(scratch, "abc123"+commands.AudioFileExtension)
	assert.Contains(t, runner.args, audioPath)
	assert.Equal(t, audioPath, ctx.Get(cor.CtxOut))
	assert.Contains(t, ctx.GetTempFiles(), audioPath)
}

func TestExtractAudioTranscoderFailureIsFatal(t *testing.T) {
	scratch := t.TempDir()
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, filepath.Join(scratch, "abc123.mp4"))
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	runner := &fakeCommandRunner{err: errors.New("exit status 1")}

	commands.NewExtractAudio("audio-test", runner, store, "/usr/bin/ffmpeg", scratch).Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestTranscribeAudioPersistsTranscript(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "/tmp/abc123.mp3")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	transcriber := &fakeTranscriber{text: "hello world"}

	commands.NewTranscribeAudio("transcribe-test", transcriber, store).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, 1, transcriber.calls)
	assert.Equal(t, "hello world", store.transcript)
	assert.Equal(t, "hello world", ctx.Get(cor.CtxOut))
	// The transcript write carries no status transition.
	assert.Empty(t, store.statuses)
}

func TestTranscribeAudioFailureIsFatal(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "/tmp/abc123.mp3")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	transcriber := &fakeTranscriber{err: errors.New("model overloaded")}

	commands.NewTranscribeAudio("transcribe-test", transcriber, store).Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Equal(t, 1, transcriber.calls)
	assert.Empty(t, store.transcript)
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestExtractQuotesTransitionsAndPersists(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "the full transcript")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	completion := &fakeCompletion{response: "- Quote one\n- Quote two\nnoise\n- Quote three"}

	commands.NewExtractQuotes("quotes-test", completion, store, "quotes from: %s").Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t,
		[]model.ProcessingStatus{model.StatusExtractingQuotes, model.StatusGeneratingMetadata},
		store.statuses)
	assert.Equal(t, []string{"Quote one", "Quote two", "Quote three"}, store.quotes)
	assert.Equal(t, []string{"Quote one", "Quote two", "Quote three"}, ctx.Get(commands.GetQuotesName()))
	// The transcript keeps flowing downstream.
	assert.Equal(t, "the full transcript", ctx.Get(cor.CtxOut))
}

func TestExtractQuotesEmptyResultIsValid(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "the full transcript")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	completion := &fakeCompletion{response: "nothing notable was said"}

	commands.NewExtractQuotes("quotes-test", completion, store, "quotes from: %s").Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.True(t, store.hasQuotes)
	assert.Empty(t, store.quotes)
}

func TestExtractQuotesCompletionFailureIsFatal(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "the full transcript")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	completion := &fakeCompletion{err: errors.New("quota exhausted")}

	commands.NewExtractQuotes("quotes-test", completion, store, "quotes from: %s").Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Equal(t, []model.ProcessingStatus{model.StatusExtractingQuotes}, store.statuses)
	assert.False(t, store.hasQuotes)
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func metadataTemplates() *cloud.PromptTemplates {
	return &cloud.PromptTemplates{
		TitlePrompt:       "title for: %s",
		DescriptionPrompt: "description for: %s",
		TagsPrompt:        "tags for: %s",
	}
}

func TestGenerateMetadataPersistsAllFields(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "the full transcript")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	title := &fakeCompletion{response: "  A Great Title \n"}
	description := &fakeCompletion{response: "A longer description."}
	tags := &fakeCompletion{response: "focus, discipline, habits"}

	commands.NewGenerateMetadata("metadata-test", title, description, tags,
		metadataTemplates(), store, 3).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	require.NotNil(t, store.metadata.Title)
	assert.Equal(t, "A Great Title", *store.metadata.Title)
	require.NotNil(t, store.metadata.Description)
	assert.Equal(t, "A longer description.", *store.metadata.Description)
	assert.Equal(t, []string{"focus", "discipline", "habits"}, store.metadata.Tags)
	assert.Equal(t, "the full transcript", ctx.Get(cor.CtxOut))
}

func TestGenerateMetadataPartialFailureIsNonFatal(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "the full transcript")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	title := &fakeCompletion{err: errors.New("title model down")}
	description := &fakeCompletion{response: "A longer description."}
	tags := &fakeCompletion{response: "focus, discipline"}

	commands.NewGenerateMetadata("metadata-test", title, description, tags,
		metadataTemplates(), store, 3).Execute(ctx)

	// The failed task leaves its field absent and the run keeps going.
	assert.False(t, ctx.HasErrors())
	assert.Nil(t, store.metadata.Title)
	require.NotNil(t, store.metadata.Description)
	assert.Equal(t, "A longer description.", *store.metadata.Description)
	assert.Equal(t, []string{"focus", "discipline"}, store.metadata.Tags)
	assert.Equal(t, "the full transcript", ctx.Get(cor.CtxOut))
}

func TestGenerateMetadataPersistFailureIsNonFatal(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "the full transcript")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	store.failures["SetGeneratedMetadata"] = errors.New("write contention")
	completion := &fakeCompletion{response: "anything"}

	commands.NewGenerateMetadata("metadata-test", completion, completion, completion,
		metadataTemplates(), store, 3).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "the full transcript", ctx.Get(cor.CtxOut))
}

func TestFinalizeRecordMarksReady(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "the full transcript")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()

	commands.NewFinalizeRecord("finalize-test", store).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, []model.ProcessingStatus{model.StatusReady}, store.statuses)
	assert.Equal(t, "abc123", ctx.Get(cor.CtxOut))
}

func TestFinalizeRecordFailureIsFatal(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "the full transcript")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	store := newFakeVideoStore()
	store.failures["SetStatus"] = errors.New("document gone")

	commands.NewFinalizeRecord("finalize-test", store).Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestPropagateSecondBrain(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "abc123")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	ctx.Add(commands.GetQuotesName(), []string{"q1", "q2"})
	title := "A Great Title"
	ctx.Add(commands.GetGeneratedMetadataName(), model.GeneratedMetadata{Title: &title})
	propagator := &fakePropagator{count: 2}

	commands.NewPropagateSecondBrain("propagate-test", propagator).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.True(t, propagator.called)
	assert.Equal(t, "A Great Title", propagator.title)
	assert.Equal(t, []string{"q1", "q2"}, propagator.quotes)
}

func TestPropagateSecondBrainFailureIsNonFatal(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "abc123")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	ctx.Add(commands.GetQuotesName(), []string{"q1"})
	propagator := &fakePropagator{err: errors.New("batch rejected")}

	commands.NewPropagateSecondBrain("propagate-test", propagator).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.True(t, propagator.called)
}

func TestPropagateSecondBrainWithoutMetadata(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "abc123")
	ctx.Add(cloud.GetVideoIdName(), "abc123")
	propagator := &fakePropagator{}

	commands.NewPropagateSecondBrain("propagate-test", propagator).Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.True(t, propagator.called)
	assert.Empty(t, propagator.title)
	assert.Empty(t, propagator.quotes)
}
