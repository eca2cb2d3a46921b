// docker.go implements the containerized solver runner.
//
// Installing the solver toolchain locally is the exception rather than
// the rule; most users run the published solver image. The Docker
// runner bind-mounts the exported model directory into the container at
// a fixed path, runs the solver there, and waits for it to exit, so the
// statepoint files land in the model directory exactly as they would
// with the exec runner.
package solver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// containerModelDir is where the model directory is mounted inside the
// solver container.
const containerModelDir = "/model"

// defaultPingTimeout bounds the daemon liveness probe. Docker Desktop
// on macOS can take a few seconds to answer the first request.
const defaultPingTimeout = 5 * time.Second

// DockerRunner runs the solver image via the Docker Engine API.
type DockerRunner struct {
	// Config supplies the image name, thread count, and cross-section
	// environment.
	Config *Config

	// Output receives the container's stdout when non-nil.
	Output io.Writer

	inner *client.Client
}

// NewDockerRunner creates a Docker client with automatic socket
// detection and verifies the daemon is responding.
//
// Detection order:
//  1. DOCKER_HOST environment variable, used as-is when set
//  2. platform default sockets: /var/run/docker.sock on Linux, the
//     same plus ~/.docker/run/docker.sock on macOS, and the
//     docker_engine named pipe on Windows
func NewDockerRunner(ctx context.Context, cfg *Config) (*DockerRunner, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectDockerHost()
		if err != nil {
			return nil, fmt.Errorf("docker socket not found: %w", err)
		}
		host = detected
	}

	// WithAPIVersionNegotiation keeps the client compatible with older
	// daemons without pinning an API version here.
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client for host %q: %w", host, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if _, err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("docker daemon is not responding: %w", err)
	}

	return &DockerRunner{Config: cfg, inner: c}, nil
}

// detectDockerHost probes the known socket paths for the current
// platform. Existence of the socket file is enough here; the Ping in
// NewDockerRunner verifies the daemon actually answers.
func detectDockerHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{"/var/run/docker.sock"})

	case "darwin":
		paths := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
		return detectUnixSocket(paths)

	case "windows":
		// Named pipes do not show up under os.Stat, so probe with a
		// short dial instead.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, time.Second)
		if err != nil {
			return "", fmt.Errorf("docker named pipe not found at %s: %w", pipePath, err)
		}
		conn.Close()
		return "npipe://" + pipePath, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// detectUnixSocket returns the Docker host URI for the first socket
// path that exists, in preference order.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("no docker socket at any of %v — is Docker running?", paths)
}

// Close releases the underlying Docker client. Safe to call twice.
func (r *DockerRunner) Close() error {
	if r.inner != nil {
		return r.inner.Close()
	}
	return nil
}

// Run executes the solver image with dir bind-mounted at /model.
//
// The container is created fresh for each run and removed afterwards;
// the only state that survives is whatever the solver wrote into the
// mounted model directory.
func (r *DockerRunner) Run(ctx context.Context, dir string, args ...string) error {
	cmd := make([]string, 0, len(args)+2)
	cmd = append(cmd, args...)
	if r.Config.Threads > 0 {
		cmd = append(cmd, "-s", strconv.Itoa(r.Config.Threads))
	}

	var envVars []string
	if r.Config.CrossSections != "" {
		envVars = append(envVars, "FLUX_CROSS_SECTIONS="+r.Config.CrossSections)
	}

	conf := &container.Config{
		Image:      r.Config.Image,
		Cmd:        cmd,
		Env:        envVars,
		WorkingDir: containerModelDir,
	}
	hostConf := &container.HostConfig{
		Binds: []string{dir + ":" + containerModelDir},
	}

	created, err := r.inner.ContainerCreate(ctx, conf, hostConf, nil, nil, "")
	if client.IsErrNotFound(err) {
		// Image not present locally — pull it once and retry.
		if pullErr := r.pullImage(ctx); pullErr != nil {
			return pullErr
		}
		created, err = r.inner.ContainerCreate(ctx, conf, hostConf, nil, nil, "")
	}
	if err != nil {
		return fmt.Errorf("failed to create solver container from %s: %w", r.Config.Image, err)
	}

	// Remove the container regardless of outcome; the model directory
	// holds everything the run produced.
	defer func() {
		_ = r.inner.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})
	}()

	if err := r.inner.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start solver container: %w", err)
	}

	statusCh, errCh := r.inner.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return fmt.Errorf("waiting for solver container: %w", err)
	case status := <-statusCh:
		if status.StatusCode != 0 {
			stderr := r.containerStderr(ctx, created.ID)
			if stderr != "" {
				return fmt.Errorf("solver container exited with status %d: %s", status.StatusCode, stderr)
			}
			return fmt.Errorf("solver container exited with status %d", status.StatusCode)
		}
	}

	if r.Output != nil {
		if out := r.containerStdout(ctx, created.ID); out != "" {
			fmt.Fprint(r.Output, out)
		}
	}
	return nil
}

// pullImage pulls the configured solver image and drains the progress
// stream (the pull does not complete until the stream is consumed).
func (r *DockerRunner) pullImage(ctx context.Context) error {
	rc, err := r.inner.ImagePull(ctx, r.Config.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull solver image %s: %w", r.Config.Image, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("failed to pull solver image %s: %w", r.Config.Image, err)
	}
	return nil
}

// containerStderr fetches the container's stderr for error reporting.
// Log retrieval failures are swallowed — they would only mask the
// original run failure.
func (r *DockerRunner) containerStderr(ctx context.Context, id string) string {
	_, stderr := r.containerLogs(ctx, id)
	return stderr
}

// containerStdout fetches the container's stdout.
func (r *DockerRunner) containerStdout(ctx context.Context, id string) string {
	stdout, _ := r.containerLogs(ctx, id)
	return stdout
}

// containerLogs demultiplexes the container log stream into stdout and
// stderr strings.
func (r *DockerRunner) containerLogs(ctx context.Context, id string) (string, string) {
	rc, err := r.inner.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", ""
	}
	defer rc.Close()

	var stdout, stderr bytes.Buffer
	_, _ = stdcopy.StdCopy(&stdout, &stderr, rc)
	return stdout.String(), stderr.String()
}
