package remote

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/common/validation"
	"sketch-predictor/internal/models"
)

const (
	completeEvent = "complete"
	maxDetailLen  = 200
)

type decoderState int

const (
	awaitingEvent decoderState = iota
	awaitingData
	done
)

// StreamDecoder reads an event stream line by line and stops at the first
// usable completion payload. An "event: complete" line arms the decoder; the
// very next line must be "data: <json>". Anything else disarms it again and
// reading continues.
type StreamDecoder struct {
	r          *bufio.Reader
	state      decoderState
	lastDetail string
}

func NewStreamDecoder(r io.Reader) *StreamDecoder {
	return &StreamDecoder{r: bufio.NewReader(r)}
}

// Decode returns the raw prediction list of a success payload, a
// RemoteReported error for an error payload, or a RemoteProtocol error when
// the stream ends first. Read errors are returned as they are.
func (d *StreamDecoder) Decode() ([]models.RawPrediction, error) {
	for d.state != done {
		line, readErr := d.r.ReadString('\n')
		if line != "" {
			preds, finished, err := d.feed(strings.TrimRight(line, "\r\n"))
			if finished {
				d.state = done
				return preds, err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}

	detail := "stream ended without a completion event"
	if d.lastDetail != "" {
		detail = d.lastDetail
	}
	return nil, errors.NewRemoteProtocolError("invalid response format", detail)
}

func (d *StreamDecoder) feed(line string) ([]models.RawPrediction, bool, error) {
	if d.state == awaitingData {
		d.state = awaitingEvent
		if payload, ok := field(line, "data"); ok {
			return d.completion(payload)
		}
	}

	if name, ok := field(line, "event"); ok && name == completeEvent {
		d.state = awaitingData
	}
	return nil, false, nil
}

func (d *StreamDecoder) completion(payload string) ([]models.RawPrediction, bool, error) {
	shape, err := validation.ClassifyCompletion([]byte(payload))
	if err != nil {
		d.lastDetail = "unparseable completion data: " + truncate(payload)
		return nil, false, nil
	}

	switch shape {
	case validation.ShapeError:
		var body []struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(payload), &body); err != nil || len(body) == 0 {
			d.lastDetail = "unparseable error payload: " + truncate(payload)
			return nil, false, nil
		}
		return nil, true, errors.NewRemoteReportedError(body[0].Error)

	case validation.ShapeSuccess:
		var body []struct {
			Predictions []models.RawPrediction `json:"predictions"`
		}
		if err := json.Unmarshal([]byte(payload), &body); err != nil || len(body) == 0 {
			d.lastDetail = fmt.Sprintf("unparseable predictions: %v", err)
			return nil, false, nil
		}
		return body[0].Predictions, true, nil

	default:
		d.lastDetail = "unrecognised completion payload: " + truncate(payload)
		return nil, false, nil
	}
}

// field parses "name: value" (the space is optional).
func field(line, name string) (string, bool) {
	rest, ok := strings.CutPrefix(line, name+":")
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(rest, " "), true
}

func truncate(s string) string {
	if len(s) <= maxDetailLen {
		return s
	}
	return s[:maxDetailLen] + "..."
}
