package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hospital/hms/internal/platform/db"
)

const defaultPostgresImage = "postgres:16-alpine"

// pgContainer is a throwaway PostgreSQL server run through the docker CLI.
// Docker picks the host port, so parallel test binaries do not race for one.
type pgContainer struct {
	id      string
	connStr string
}

// startPostgres runs HMS_TEST_PG_IMAGE (default postgres:16-alpine) and
// returns once the server accepts queries.
func startPostgres(ctx context.Context) (*pgContainer, error) {
	image := os.Getenv("HMS_TEST_PG_IMAGE")
	if image == "" {
		image = defaultPostgresImage
	}

	out, err := docker(ctx, "run", "-d", "--rm",
		"--label", "hms-integration=1",
		"-p", "127.0.0.1::5432",
		"-e", "POSTGRES_USER=hms",
		"-e", "POSTGRES_PASSWORD=hms",
		"-e", "POSTGRES_DB=hms_test",
		image,
	)
	if err != nil {
		return nil, err
	}
	pc := &pgContainer{id: out}

	hostPort, err := pc.hostPort(ctx)
	if err != nil {
		pc.stop()
		return nil, err
	}
	pc.connStr = fmt.Sprintf("postgres://hms:hms@%s/hms_test?sslmode=disable", hostPort)

	if err := pc.waitReady(ctx, 30*time.Second); err != nil {
		pc.stop()
		return nil, err
	}
	return pc, nil
}

// hostPort asks docker which loopback port it bound to 5432.
func (pc *pgContainer) hostPort(ctx context.Context) (string, error) {
	out, err := docker(ctx, "port", pc.id, "5432/tcp")
	if err != nil {
		return "", err
	}
	// One line per binding, e.g. "127.0.0.1:49153".
	line, _, _ := strings.Cut(out, "\n")
	if line == "" {
		return "", fmt.Errorf("container %s published no port", pc.id)
	}
	return strings.TrimSpace(line), nil
}

// waitReady waits for pg_isready inside the container, then for the pool
// to answer a ping from the host.
func (pc *pgContainer) waitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		if _, err := docker(ctx, "exec", pc.id, "pg_isready", "-U", "hms", "-d", "hms_test"); err == nil {
			pool, err := db.NewPool(ctx, pc.connStr, 1, 0)
			if err == nil {
				pool.Close()
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready after %v: %w", timeout, ctx.Err())
		case <-time.After(300 * time.Millisecond):
		}
	}
}

func (pc *pgContainer) stop() {
	exec.Command("docker", "rm", "-f", "-v", pc.id).Run()
}

func docker(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "docker", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("docker %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}
