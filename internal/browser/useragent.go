package browser

import (
	"fmt"
	"math/rand"
)

// 维护最近几个 Chrome 大版本，建 profile 时随机取一个，
// 避免整批账号挂同一个版本号。列表过旧时手动滚动一下即可。
var chromeVersions = []string{
	"139.0.0.0",
	"138.0.0.0",
	"137.0.0.0",
	"136.0.0.0",
	"135.0.0.0",
}

// PickChromeVersion 从版本表里随机挑一个。
func PickChromeVersion() string {
	return chromeVersions[rand.Intn(len(chromeVersions))]
}

// ChromeUserAgent 用版本号拼 Windows 桌面端 UA。
func ChromeUserAgent(version string) string {
	if version == "" {
		version = chromeVersions[0]
	}
	return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", version)
}
