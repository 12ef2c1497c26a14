package cron

import (
	"github.com/jasonlvhit/gocron"

	"github.com/Leyfach/congenialexchangeascii-sub000/margin"
)

// InterestJob applies the hourly funding charge on open leveraged
// positions: borrowed notional × hourly rate.
type InterestJob struct {
	engine *margin.Engine
}

func NewInterestJob(engine *margin.Engine) *InterestJob {
	return &InterestJob{engine: engine}
}

func (j *InterestJob) Process() {
	s := gocron.NewScheduler()
	s.Every(1).Hour().Do(j.engine.AccrueInterest)
	<-s.Start()
}
