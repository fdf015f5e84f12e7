// Package planner builds the slot->allocation grid an admin edits while
// configuring a new cycle, and flattens it into the participants payload
// for cycle creation.
package planner

import (
	"errors"
	"fmt"
	"strconv"

	"klicks-agent/internal/models"
)

var (
	ErrSlotNotFound       = errors.New("slot not found")
	ErrAllocationNotFound = errors.New("allocation not found")
)

// Allocation is one member/amount entry inside a slot. IDs come from a
// monotonic counter so equality stays deterministic.
type Allocation struct {
	ID     int64
	Member *models.Member
	Amount string
}

// Slot holds the allocations for one slot number. A slot always has at
// least one allocation; an empty-looking one carries the default amount
// and no member.
type Slot struct {
	Number      int
	Allocations []Allocation
}

// Rejected describes one allocation dropped during flattening, reported
// instead of silently omitted.
type Rejected struct {
	Slot         int
	AllocationID int64
	Reason       string
}

// Planner is the editable grid. It mirrors a single admin's form state and
// is not safe for concurrent use.
type Planner struct {
	defaultAmount string
	slots         []Slot
	nextID        int64
}

// New creates an empty grid. defaultAmount seeds every fresh allocation
// (the cycle's saving_amount).
func New(defaultAmount string) *Planner {
	return &Planner{defaultAmount: defaultAmount}
}

func (p *Planner) newAllocation() Allocation {
	p.nextID++
	return Allocation{ID: p.nextID, Amount: p.defaultAmount}
}

// nonEmpty reports whether an allocation has been touched by the admin.
func (p *Planner) nonEmpty(a Allocation) bool {
	return a.Member != nil || a.Amount != p.defaultAmount
}

// isFresh reports whether a slot is indistinguishable from a newly created
// one, so Resize can keep it instead of churning allocation ids.
func (p *Planner) isFresh(s Slot) bool {
	return len(s.Allocations) == 1 && !p.nonEmpty(s.Allocations[0])
}

// Resize reshapes the grid to exactly totalSlots slots numbered 1..n.
// Slots with at least one touched allocation are kept; the rest are reset
// to a single default allocation. Slots beyond the bound are dropped.
// Total and idempotent for any totalSlots >= 0.
func (p *Planner) Resize(totalSlots int) {
	if totalSlots < 0 {
		totalSlots = 0
	}
	prior := make(map[int]Slot, len(p.slots))
	for _, s := range p.slots {
		prior[s.Number] = s
	}

	slots := make([]Slot, 0, totalSlots)
	for number := 1; number <= totalSlots; number++ {
		if existing, ok := prior[number]; ok {
			keep := p.isFresh(existing)
			for _, a := range existing.Allocations {
				if p.nonEmpty(a) {
					keep = true
					break
				}
			}
			if keep {
				slots = append(slots, existing)
				continue
			}
		}
		slots = append(slots, Slot{Number: number, Allocations: []Allocation{p.newAllocation()}})
	}
	p.slots = slots
}

// Slots returns a deep copy of the grid for rendering.
func (p *Planner) Slots() []Slot {
	out := make([]Slot, len(p.slots))
	for i, s := range p.slots {
		out[i] = Slot{Number: s.Number, Allocations: append([]Allocation(nil), s.Allocations...)}
	}
	return out
}

func (p *Planner) slot(number int) (*Slot, error) {
	for i := range p.slots {
		if p.slots[i].Number == number {
			return &p.slots[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrSlotNotFound, number)
}

func (p *Planner) allocation(slotNumber int, allocationID int64) (*Allocation, error) {
	s, err := p.slot(slotNumber)
	if err != nil {
		return nil, err
	}
	for i := range s.Allocations {
		if s.Allocations[i].ID == allocationID {
			return &s.Allocations[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d in slot %d", ErrAllocationNotFound, allocationID, slotNumber)
}

// AddAllocation appends a default allocation to a slot. There is no upper
// bound on allocations per slot.
func (p *Planner) AddAllocation(slotNumber int) error {
	s, err := p.slot(slotNumber)
	if err != nil {
		return err
	}
	s.Allocations = append(s.Allocations, p.newAllocation())
	return nil
}

// RemoveAllocation deletes one allocation. A slot is never left with zero
// allocations: removing the last one resets the slot to a single default.
func (p *Planner) RemoveAllocation(slotNumber int, allocationID int64) error {
	s, err := p.slot(slotNumber)
	if err != nil {
		return err
	}
	found := false
	kept := s.Allocations[:0]
	for _, a := range s.Allocations {
		if a.ID == allocationID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("%w: %d in slot %d", ErrAllocationNotFound, allocationID, slotNumber)
	}
	if len(kept) == 0 {
		kept = append(kept, p.newAllocation())
	}
	s.Allocations = kept
	return nil
}

// SetAllocationMember assigns or clears an allocation's member. Pointwise;
// duplicate membership is caught at flatten time, not here.
func (p *Planner) SetAllocationMember(slotNumber int, allocationID int64, member *models.Member) error {
	a, err := p.allocation(slotNumber, allocationID)
	if err != nil {
		return err
	}
	a.Member = member
	return nil
}

// SetAllocationAmount overwrites an allocation's amount. Pointwise; the
// value is validated at flatten time.
func (p *Planner) SetAllocationAmount(slotNumber int, allocationID int64, amount string) error {
	a, err := p.allocation(slotNumber, allocationID)
	if err != nil {
		return err
	}
	a.Amount = amount
	return nil
}

// AutoAssign places the member into the first memberless allocation in
// ascending slot order. Returns false, leaving the grid unchanged, when the
// member is already assigned or no empty allocation exists.
func (p *Planner) AutoAssign(member *models.Member) bool {
	if member == nil || p.IsMemberAssigned(member.UserID) {
		return false
	}
	for i := range p.slots {
		for j := range p.slots[i].Allocations {
			if p.slots[i].Allocations[j].Member == nil {
				p.slots[i].Allocations[j].Member = member
				return true
			}
		}
	}
	return false
}

// IsMemberAssigned reports whether any allocation references the user.
func (p *Planner) IsMemberAssigned(userID int) bool {
	for _, s := range p.slots {
		for _, a := range s.Allocations {
			if a.Member != nil && a.Member.UserID == userID {
				return true
			}
		}
	}
	return false
}

// ToParticipants flattens the grid into the cycle-creation payload.
// Allocations missing a member or a usable amount are reported as rejected
// entries rather than silently dropped. A user never appears twice in the
// result; later duplicates are rejected.
func (p *Planner) ToParticipants() ([]models.Participant, []Rejected) {
	var participants []models.Participant
	var rejected []Rejected
	seen := make(map[int]bool)

	for _, s := range p.slots {
		for _, a := range s.Allocations {
			switch {
			case a.Member == nil:
				rejected = append(rejected, Rejected{Slot: s.Number, AllocationID: a.ID, Reason: "no member selected"})
			case a.Amount == "":
				rejected = append(rejected, Rejected{Slot: s.Number, AllocationID: a.ID, Reason: "amount is empty"})
			case seen[a.Member.UserID]:
				rejected = append(rejected, Rejected{Slot: s.Number, AllocationID: a.ID, Reason: "member already assigned"})
			default:
				amount, err := strconv.ParseFloat(a.Amount, 64)
				if err != nil {
					rejected = append(rejected, Rejected{Slot: s.Number, AllocationID: a.ID, Reason: "amount is not a number"})
					continue
				}
				seen[a.Member.UserID] = true
				participants = append(participants, models.Participant{
					UserID: a.Member.UserID,
					Amount: amount,
					Slot:   s.Number,
				})
			}
		}
	}
	return participants, rejected
}
