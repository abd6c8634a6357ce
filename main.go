// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/nykaa/sync-packages/cmd/syncpkg"

func main() {
	cmd.Execute()
}
