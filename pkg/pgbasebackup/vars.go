/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pgbasebackup

import "strconv"

var Command = "pg_basebackup"

var Args = func(host string, port uint16, user string, dataDir string) []string {
	return []string{
		"-h", host,
		"-p", strconv.Itoa(int(port)),
		"-U", user,
		"-D", dataDir,
		"-X", "stream",
		"-w",
	}
}
