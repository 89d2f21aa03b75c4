package integration_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestBuildBinariesFromRepositoryRoot(t *testing.T) {
	workingDirectory, workingDirectoryErr := os.Getwd()
	if workingDirectoryErr != nil {
		t.Fatalf("failed to get working directory: %v", workingDirectoryErr)
	}

	repositoryRoot := filepath.Dir(workingDirectory)
	temporaryBinaryDirectory := t.TempDir()

	binaries := map[string]string{
		"claim-cli":  "./clients/cli",
		"claimrelay": "./cmd/server",
	}
	for binaryName, packagePath := range binaries {
		temporaryBinaryPath := filepath.Join(temporaryBinaryDirectory, binaryName)

		buildCommand := exec.Command("go", "build", "-o", temporaryBinaryPath, packagePath)
		buildCommand.Dir = repositoryRoot

		commandOutput, buildErr := buildCommand.CombinedOutput()
		if buildErr != nil {
			t.Fatalf("go build %s failed: %v\n%s", packagePath, buildErr, string(commandOutput))
		}

		if _, binaryStatErr := os.Stat(temporaryBinaryPath); binaryStatErr != nil {
			t.Fatalf("expected binary at %s: %v", temporaryBinaryPath, binaryStatErr)
		}
	}
}
