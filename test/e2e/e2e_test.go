//go:build e2e

package e2e

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
)

var testCtx *TestContext

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(run(m))
}

// run owns the shared infrastructure so deferred teardown happens before exit.
func run(m *testing.M) int {
	if os.Getenv("DOCKER_HOST") == "" && os.Getenv("TESTCONTAINERS_DOCKER_SOCKET") == "" {
		log.Println("Using default Docker socket for testcontainers")
	}

	ctx := context.Background()
	testCtx = &TestContext{}

	log.Println("Starting Postgres container...")
	var err error
	testCtx.PostgresContainer, testCtx.ConnString, err = setupPostgresE(ctx)
	if err != nil {
		log.Fatalf("Failed to start postgres: %v", err)
	}
	defer func() {
		if err := testCtx.PostgresContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate postgres container: %v", err)
		}
	}()
	log.Println("Postgres container started")

	testCtx.Platform = newFakePlatform()
	defer testCtx.Platform.Close()
	log.Println("Fake platform started at:", testCtx.Platform.URL)

	log.Println("Starting test server...")
	testCtx.TestServer, testCtx.Store, err = startServerE(testCtx.ConnString, testCtx.Platform.URL)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer testCtx.TestServer.Close()
	defer testCtx.Store.Close()
	log.Println("Test server started at:", testCtx.TestServer.URL)

	exitCode := m.Run()

	log.Println("E2E tests completed with exit code:", exitCode)
	return exitCode
}
