package packageutil

import "testing"

func frameType(isApplication bool) string {
	if isApplication {
		return "application"
	}
	return "system"
}

func TestIsAndroidApplicationPackage(t *testing.T) {
	tests := []struct {
		name          string
		className     string
		isApplication bool
	}{
		{
			name:          "android system package",
			className:     "android.app.Activity",
			isApplication: false,
		},
		{
			name:          "androidx system package",
			className:     "androidx.lifecycle.LiveData",
			isApplication: false,
		},
		{
			name:          "art internals",
			className:     "dalvik.system.VMRuntime",
			isApplication: false,
		},
		{
			name:          "application package",
			className:     "io.sentry.samples.android.MainActivity",
			isApplication: true,
		},
		{
			name:          "no class",
			className:     "",
			isApplication: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if isApplication := IsAndroidApplicationPackage(tt.className); isApplication != tt.isApplication {
				t.Fatalf("Expected %s frame but got %s frame", frameType(tt.isApplication), frameType(isApplication))
			}
		})
	}
}

func TestIsAndroidApplicationBinary(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		appPackageName string
		isApplication  bool
	}{
		{
			name:           "application library",
			path:           "/data/app/com.example-1/lib/arm64/libexample.so",
			appPackageName: "com.example",
			isApplication:  true,
		},
		{
			name:           "system library",
			path:           "/system/lib64/libc.so",
			appPackageName: "com.example",
			isApplication:  false,
		},
		{
			name:           "other application",
			path:           "/data/app/org.other-2/base.apk",
			appPackageName: "com.example",
			isApplication:  false,
		},
		{
			name:           "unknown application",
			path:           "/data/app/com.example-1/base.apk",
			appPackageName: "",
			isApplication:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if isApplication := IsAndroidApplicationBinary(tt.path, tt.appPackageName); isApplication != tt.isApplication {
				t.Fatalf("Expected %s binary but got %s binary", frameType(tt.isApplication), frameType(isApplication))
			}
		})
	}
}
