package session

import "github.com/mmynk/giftsplit/internal/models"

// Observer is told about session lifecycle and recovered inputs.
// metrics.Collector implements it.
type Observer interface {
	SessionOpened()
	SessionClosed()
	Recovered(kind models.Kind)
	AddressSaved()
}

type nopObserver struct{}

func (nopObserver) SessionOpened()        {}
func (nopObserver) SessionClosed()        {}
func (nopObserver) Recovered(models.Kind) {}
func (nopObserver) AddressSaved()         {}
