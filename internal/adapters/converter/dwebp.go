package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"stickerbot/internal/core/domain"

	"github.com/rs/zerolog/log"
)

const DefaultMaxOutput = 10 * 1024 * 1024

type DWebPConverter struct {
	command   []string
	maxOutput int
}

// NewDWebPConverter probes the given dwebp binary and returns a converter capturing at most maxOutput bytes of
// converted output.
func NewDWebPConverter(binary string, maxOutput int) (*DWebPConverter, error) {
	if binary == "" {
		binary = "dwebp"
	}

	probe := []string{binary, "-version"}
	out, err := exec.Command(probe[0], probe[1:]...).Output()
	if err != nil {
		log.Debug().Strs("command", probe).Err(err).Msg("binary not found")
		return nil, fmt.Errorf("%w: %s", domain.ErrConverterNotPresent, binary)
	}

	log.Debug().Strs("command", probe).Bytes("version", bytes.TrimSpace(out)).Msg("binary found")

	return newDWebPConverter([]string{binary}, maxOutput), nil
}

func newDWebPConverter(command []string, maxOutput int) *DWebPConverter {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return &DWebPConverter{command: command, maxOutput: maxOutput}
}

func (c *DWebPConverter) Convert(ctx context.Context, inputPath string) ([]byte, error) {
	args := append(append([]string{}, c.command...), inputPath, "-o", "-")

	stdout := &boundedBuffer{max: c.maxOutput}
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Strs("command", args).Msg("dwebp could not be started")
		return nil, &domain.ProcessError{Kind: domain.ErrProcessSpawn, Err: err}
	}

	err := cmd.Wait()

	// An overflowing stdout closes the pipe and usually kills dwebp with SIGPIPE, so check the bound first.
	if stdout.exceeded {
		log.Error().Int("maxOutput", c.maxOutput).Msg("dwebp output exceeded limit")
		return nil, &domain.ProcessError{Kind: domain.ErrOutputTooLarge, Stderr: stderr.String(),
			Err: fmt.Errorf("more than %d bytes", c.maxOutput)}
	}

	if err != nil {
		err = waitError(ctx, err, stderr.String())
		log.Error().Err(err).Msg("dwebp failed")
		return nil, err
	}

	log.Debug().Int("bytes", stdout.buf.Len()).Msg("dwebp finished")

	return stdout.buf.Bytes(), nil
}

// waitError classifies a failed Wait. Errors that don't come from the process exit status, such as a failed
// copy of its output, are not process errors.
func waitError(ctx context.Context, err error, stderr string) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("%w: waiting for dwebp: %w", domain.ErrUnexpected, err)
	}

	procErr := &domain.ProcessError{Stderr: stderr}
	if code := exitErr.ExitCode(); code >= 0 {
		procErr.Kind = domain.ErrProcessExit
		procErr.Code = code
	} else {
		procErr.Kind = domain.ErrProcessSignal
		procErr.Signal = exitErr.ProcessState.String()
		procErr.Err = ctx.Err()
	}

	return procErr
}

var errOutputLimit = errors.New("output limit reached")

// boundedBuffer rejects writes that would grow it past max instead of truncating.
type boundedBuffer struct {
	buf      bytes.Buffer
	max      int
	exceeded bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) > b.max {
		b.exceeded = true
		return 0, errOutputLimit
	}
	return b.buf.Write(p)
}
