// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// GeneratedMetadata carries the results of the parallel metadata generation
// step. Each field is nil when its generation attempt failed, so a partial
// update can persist exactly the subset that succeeded.
type GeneratedMetadata struct {
	Title       *string
	Description *string
	Tags        []string
}

// IsEmpty reports whether no generation attempt produced a result, in which
// case there is nothing to persist.
func (g GeneratedMetadata) IsEmpty() bool {
	return g.Title == nil && g.Description == nil && g.Tags == nil
}
