package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long a killed skopeo may keep its output pipes open.
const waitDelay = time.Second

// Skopeo inspects images by running `skopeo inspect docker://<reference>`.
type Skopeo struct {
	// Path is the skopeo binary name or path; "skopeo" when empty.
	Path string
	// Insecure passes --tls-verify=false.
	Insecure bool
}

// ExitError reports a non-zero skopeo exit.
type ExitError struct {
	Reference string
	Code      int
	Stderr    string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("skopeo inspect %s exited with status %d", e.Reference, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Inspect runs skopeo and decodes its JSON output.
func (s *Skopeo) Inspect(ctx context.Context, reference string) (*Image, error) {
	name := s.Path
	if name == "" {
		name = KindSkopeo
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolNotFound, name, err)
	}

	cmd := exec.CommandContext(ctx, bin, s.args(reference)...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("inspecting %s: %w", reference, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{
				Reference: reference,
				Code:      exitErr.ExitCode(),
				Stderr:    strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("running %s: %w", bin, err)
	}

	var img Image
	if err := json.Unmarshal(stdout.Bytes(), &img); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedOutput, reference, err)
	}
	return &img, nil
}

func (s *Skopeo) args(reference string) []string {
	args := []string{"inspect"}
	if s.Insecure {
		args = append(args, "--tls-verify=false")
	}
	if strings.Contains(reference, "://") {
		return append(args, reference)
	}
	return append(args, dockerTransport+reference)
}
