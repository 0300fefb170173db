/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"

	"gofountain/internal/script"
)

const sampleScript = `Title: The Long Night
Credit: written by
Author: Jo Writer
Draft date: 2025-01-01

INT. KITCHEN - NIGHT

Rain *hammers* the window.

MARY
(quietly)
Is it **over**?

JOHN ^
It never is.

>THE END<

CUT TO:

# Act Two
= the morning after
[[check the timeline]]
~Sing it low
`

func sampleDoc() script.Document {
	return script.Classify(strings.Split(strings.TrimSuffix(sampleScript, "\n"), "\n"), script.WithDualDialogue(true))
}
