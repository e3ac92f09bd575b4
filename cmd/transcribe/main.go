// transcribe is a local end-to-end client: it wires the service from
// the environment, submits one media file, waits for the terminal
// status, and writes the exported transcript next to the input.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"media-transcription-service/internal/app"
	"media-transcription-service/internal/config"
	"media-transcription-service/internal/models"
	"media-transcription-service/internal/service/submission"
)

func main() {
	var (
		format    = flag.String("format", "txt", "export format (txt, csv, srt, vtt, docx, pdf)")
		owner     = flag.String("owner", "local", "owner id for the submission")
		modelTier = flag.String("model", "BALANCED", "model tier (FAST, BALANCED, ACCURATE)")
		diarize   = flag.Bool("diarize", false, "request speaker diarization")
		restore   = flag.Bool("restore", false, "request audio restoration")
		translate = flag.String("translate", "", "target language for translation")
		timeout   = flag.Duration("timeout", 5*time.Minute, "how long to wait for the job")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <media-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	mediaPath := flag.Arg(0)

	media, err := os.ReadFile(mediaPath)
	if err != nil {
		log.Fatalf("failed to read media: %v", err)
	}

	application, err := app.New(config.Load())
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	application.Start(ctx)
	defer application.Shutdown(context.Background())

	jobID, err := application.Submission.Submit(ctx, submission.Request{
		OwnerID: *owner,
		Media:   media,
		Options: models.JobOptions{
			ModelTier:      models.ParseModelTier(*modelTier),
			TargetLanguage: *translate,
			Restore:        *restore,
			Diarize:        *diarize,
		},
	})
	if err != nil {
		log.Fatalf("submission rejected: %v", err)
	}
	log.Printf("job %d submitted", jobID)

	status, err := waitTerminal(ctx, application, jobID)
	if err != nil {
		log.Fatalf("waiting for job %d: %v", jobID, err)
	}
	if status != models.StatusCompleted {
		log.Fatalf("job %d ended %s", jobID, status)
	}

	result, err := application.Transcripts.Export(ctx, jobID, *format)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	outPath := fmt.Sprintf("%s.%s", mediaPath, result.Extension)
	if err := os.WriteFile(outPath, result.Data, 0o644); err != nil {
		log.Fatalf("failed to write transcript: %v", err)
	}
	log.Printf("transcript written to %s", outPath)
}

func waitTerminal(ctx context.Context, a *app.Application, jobID int64) (models.JobStatus, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return models.StatusUnknown, ctx.Err()
		case <-ticker.C:
			job, err := a.Jobs.Get(ctx, jobID)
			if err != nil {
				return models.StatusUnknown, err
			}
			if job.Status.IsTerminal() {
				return job.Status, nil
			}
		}
	}
}
