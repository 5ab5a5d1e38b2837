package appointments

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/crestline/estatesite/internal/notify"
)

type memRepo struct {
	mutex        sync.Mutex
	appointments map[int]*Appointment
	lastID       int
	addErr       error
}

func newMemRepo() *memRepo {
	return &memRepo{appointments: make(map[int]*Appointment)}
}

func (r *memRepo) Add(_ context.Context, a *Appointment) (*Appointment, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.addErr != nil {
		return nil, r.addErr
	}
	r.lastID++
	a.ID = r.lastID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	r.appointments[a.ID] = &stored
	return a, nil
}

func (r *memRepo) Get(_ context.Context, id int) (*Appointment, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	c := *a
	return &c, nil
}

func (r *memRepo) List(_ context.Context, status Status) ([]Appointment, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	list := make([]Appointment, 0)
	for _, a := range r.appointments {
		if status == "" || a.Status == status {
			list = append(list, *a)
		}
	}
	slices.SortFunc(list, func(a, b Appointment) int { return b.ID - a.ID })
	return list, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id int, status Status) (*Appointment, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	c := *a
	return &c, nil
}

func (r *memRepo) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *memRepo) CountByStatus(_ context.Context) (map[Status]int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	counts := make(map[Status]int)
	for _, a := range r.appointments {
		counts[a.Status]++
	}
	return counts, nil
}

type fakeMailer struct {
	mutex sync.Mutex
	sent  []notify.Message
	err   error
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errSMTPDown = errors.New("dial smtp: connection refused")
