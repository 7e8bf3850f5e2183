// Copyright 2026 The capacitor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pkg

// OrderedSet is a set of strings that remembers insertion order. It is not
// safe for concurrent use; the scheduler loop owns all instances.
type OrderedSet struct {
	index map[string]struct{}
	order []string
}

func NewOrderedSet() *OrderedSet {
	return &OrderedSet{index: make(map[string]struct{})}
}

func (s *OrderedSet) Add(value string) {
	if _, ok := s.index[value]; ok {
		return
	}
	s.index[value] = struct{}{}
	s.order = append(s.order, value)
}

func (s *OrderedSet) Remove(value string) {
	if _, ok := s.index[value]; !ok {
		return
	}
	delete(s.index, value)
	for i, v := range s.order {
		if v == value {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *OrderedSet) Contains(value string) (exists bool) {
	_, exists = s.index[value]
	return
}

func (s *OrderedSet) Length() int {
	return len(s.order)
}

// Values returns the members of the set in insertion order.
func (s *OrderedSet) Values() []string {
	values := make([]string, len(s.order))
	copy(values, s.order)
	return values
}
