/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"gofountain/internal/config"
)

type configFlags struct {
	force bool
}

func (f *configFlags) bind(fs *flag.FlagSet) {
	fs.BoolVar(&f.force, "force", false, "overwrite an existing file on init")
}

// run manages the configuration file and the keyring password:
// path prints the file location, show the effective configuration,
// init writes the defaults and password reads one line from stdin into the keyring.
func (f *configFlags) run(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usageErrorf("config requires one of: path, show, init, password")
	}
	path := a.cfgPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	switch args[0] {
	case "path":
		fmt.Fprintln(a.out, path)
	case "show":
		data, err := yaml.Marshal(a.cfg)
		if err != nil {
			return err
		}
		_, _ = a.out.Write(data)
		if a.password != "" {
			fmt.Fprintln(a.out, "# backend password: stored in keyring")
		}
	case "init":
		if _, err := os.Stat(path); err == nil && !f.force {
			return fmt.Errorf("%s exists, use --force to overwrite", path)
		}
		if err := config.SaveFile(path, config.Defaults(), ""); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintln(a.out, "wrote", path)
	case "password":
		line, err := bufio.NewReader(a.in).ReadString('\n')
		pw := strings.TrimRight(line, "\r\n")
		if pw == "" {
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			return usageErrorf("empty password")
		}
		if err := config.SaveFile(path, a.cfg, pw); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "backend password stored in keyring")
	default:
		return usageErrorf("unknown config action %q", args[0])
	}
	return nil
}
