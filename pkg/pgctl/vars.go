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

package pgctl

var Command = "pg_ctl"

var StartArgs = func(dataDir string) []string {
	return []string{"-D", dataDir, "start"}
}

var StopArgs = func(dataDir string) []string {
	return []string{"-D", dataDir, "-m", "fast", "-w", "stop"}
}

var StatusArgs = func(dataDir string) []string {
	return []string{"-D", dataDir, "status"}
}
