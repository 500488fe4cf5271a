package packageutil

import "strings"

var (
	androidPackagePrefixes = []string{
		"android.",
		"androidx.",
		"com.android.",
		"com.google.android.",
		"com.motorola.",
		"dalvik.",
		"java.",
		"javax.",
		"kotlin.",
		"kotlinx.",
		"libcore.",
		"okhttp3.",
		"retrofit2.",
		"sun.",
	}
)

// IsAndroidApplicationPackage checks if a class doesn't belong to an Android
// system or well known third party package.
func IsAndroidApplicationPackage(className string) bool {
	if className == "" {
		return false
	}
	for _, p := range androidPackagePrefixes {
		if strings.HasPrefix(className, p) {
			return false
		}
	}
	return true
}

// IsAndroidApplicationBinary determines whether a binary was installed with
// the application by checking its path.
func IsAndroidApplicationBinary(path, appPackageName string) bool {
	if appPackageName == "" {
		return false
	}
	return strings.HasPrefix(path, "/data/app/"+appPackageName)
}
