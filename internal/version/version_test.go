package version

import (
	"strings"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version != Version {
		t.Errorf("GetBuildInfo().Version = %s; want %s", info.Version, Version)
	}
	if info.GoVersion == "" {
		t.Error("GetBuildInfo().GoVersion is empty")
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("GetBuildInfo().Platform = %s; want os/arch", info.Platform)
	}
}

func TestInfo_DevelopmentBuild(t *testing.T) {
	result := Info()
	if !strings.Contains(result, Version) {
		t.Errorf("Info() = %s; want it to contain %s", result, Version)
	}
	if BuildTime == "unknown" && !strings.Contains(result, "development build") {
		t.Errorf("Info() = %s; want development build marker", result)
	}
}

func TestGetVersionString_UnknownBuildTime(t *testing.T) {
	if BuildTime == "unknown" && GetVersionString() != Version {
		t.Errorf("GetVersionString() = %s; want %s", GetVersionString(), Version)
	}
}
