// SPDX-License-Identifier: MPL-2.0

package main

import cmd "tilebridge/cmd/tilebridge"

func main() {
	cmd.Execute()
}
