package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// addFaceAPIFlags registers the flags shared by every command that talks to the face API.
func addFaceAPIFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("base-path", "b", "", "Directory the image names are resolved against (env IMAGES_BASE_PATH)")
	cmd.Flags().StringP("key", "k", "", "Face API subscription key (env FACE_API_KEY)")
	cmd.Flags().String("endpoint", "", "Face API base URL (env FACE_API_ENDPOINT)")
	cmd.Flags().Int("concurrency", 0, "Parallel detection calls per request (env DETECT_CONCURRENCY)")
}
