// Package updater replaces the running binary with the latest GitHub
// release build for this platform.
package updater

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	githubAPIURL = "https://api.github.com/repos/agnosto/boosty-archiver/releases/latest"
	binaryName   = "boosty-archiver"
)

type GithubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

func CheckForUpdate(currentVersion string) error {
	release, err := getLatestRelease()
	if err != nil {
		return fmt.Errorf("failed to get latest release: %w", err)
	}

	if release.TagName == normalizeVersion(currentVersion) {
		fmt.Println("You are already on the latest version.")
		return nil
	}

	fmt.Printf("New version available: %s\n", release.TagName)

	downloadURL, err := assetFor(release, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}
	return applyUpdate(downloadURL)
}

// CheckUpdateAvailable reports whether a newer release is published without
// touching the installed binary.
func CheckUpdateAvailable(currentVersion string) (bool, string, error) {
	release, err := getLatestRelease()
	if err != nil {
		return false, "", err
	}
	return release.TagName != normalizeVersion(currentVersion), release.TagName, nil
}

func normalizeVersion(version string) string {
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// assetFor picks the release archive built for the given platform. Release
// assets are named {binary}_{version}_{os}_{arch}.tar.gz.
func assetFor(release *GithubRelease, goos, goarch string) (string, error) {
	assetName := fmt.Sprintf("%s_%s_%s_%s.tar.gz", binaryName, strings.TrimPrefix(release.TagName, "v"), goos, goarch)
	for _, asset := range release.Assets {
		if asset.Name == assetName {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("no suitable binary found for your system")
}

func getLatestRelease() (*GithubRelease, error) {
	resp, err := http.Get(githubAPIURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var release GithubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, err
	}

	return &release, nil
}

// applyUpdate downloads the release archive and swaps the running binary
// for the one inside it.
func applyUpdate(downloadURL string) error {
	fmt.Println("Downloading new version...")
	resp, err := http.Get(downloadURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tempDir, err := os.MkdirTemp("", binaryName+"-update")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	newBinary, err := extractBinary(resp.Body, tempDir)
	if err != nil {
		return err
	}

	return replaceBinary(newBinary, tempDir)
}

// extractBinary unpacks the tar.gz stream into dir and returns the path of
// the archived binary.
func extractBinary(archive io.Reader, dir string) (string, error) {
	gzr, err := gzip.NewReader(archive)
	if err != nil {
		return "", err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		outPath := filepath.Join(dir, filepath.Base(header.Name))
		outFile, err := os.Create(outPath)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(outFile, tr); err != nil {
			outFile.Close()
			return "", err
		}
		outFile.Close()

		if strings.HasPrefix(filepath.Base(header.Name), binaryName) {
			if err := os.Chmod(outPath, 0755); err != nil {
				return "", err
			}
			return outPath, nil
		}
	}

	return "", fmt.Errorf("binary not found in the archive")
}

func replaceBinary(newBinary, tempDir string) error {
	execPath, err := os.Executable()
	if err != nil {
		return err
	}

	if runtime.GOOS != "windows" {
		if err := os.Rename(newBinary, execPath); err != nil {
			return err
		}
		fmt.Println("Update successful. Please restart the application.")
		return nil
	}

	// Windows cannot replace a running binary, defer to a script that waits
	// for the process to exit.
	updateScript := filepath.Join(tempDir, "update.bat")
	scriptContent := fmt.Sprintf(`@echo off
:loop
tasklist /FI "IMAGENAME eq %s" 2>NUL | find /I /N "%s">NUL
if "%%ERRORLEVEL%%"=="0" (
    timeout /t 1 >nul
    goto loop
)
move /Y "%s" "%s"
del "%s"
`, filepath.Base(execPath), filepath.Base(execPath), newBinary, execPath, updateScript)

	if err := os.WriteFile(updateScript, []byte(scriptContent), 0755); err != nil {
		return err
	}
	if err := exec.Command("cmd", "/C", updateScript).Start(); err != nil {
		return err
	}

	fmt.Println("Update downloaded. It will be applied when you exit the program.")
	return nil
}
