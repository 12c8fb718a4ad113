// cmd/predictor/predict.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/prediction/codec"
)

func predictCmd() *cobra.Command {
	var (
		imagePath  string
		targetWord string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one drawing and print the ranked predictions as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			image, err := readImage(imagePath, a.cfg.Prediction.ImageSize)
			if err != nil {
				return err
			}

			result, err := a.orchestrator.Predict(ctx, image, targetWord)
			if err != nil {
				return fmt.Errorf("%s", errors.UserMessage(err))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "PNG/JPEG file, or a text file holding a data URI")
	cmd.Flags().StringVar(&targetWord, "target", "", "word the drawing is meant to be")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

// readImage accepts either a data URI text file or a binary image, which is
// rasterized the same way the upload route does.
func readImage(path string, size uint) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if text := strings.TrimSpace(string(data)); strings.HasPrefix(text, "data:") {
		return text, nil
	}
	return codec.RasterizeReader(bytes.NewReader(data), size)
}
