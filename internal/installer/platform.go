package installer

import (
	"io"
	"net/http"
	"runtime"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
)

func platformGOOS() string   { return runtime.GOOS }
func platformGOARCH() string { return runtime.GOARCH }

func readAll(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Network, "installer.readAll", "failed to read manifest body", err)
	}
	return b, nil
}
