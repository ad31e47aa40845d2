package app

import (
	"github.com/yungbote/learnbridge/internal/api"
	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/services"
	"github.com/yungbote/learnbridge/internal/store"
)

type Services struct {
	Session  services.SessionService
	Progress services.ProgressService
	Courses  services.CourseService
	XP       services.XPService
	Shop     services.ShopService
	Syncer   *services.Syncer
}

func wireServices(st *store.Store, apic *api.Client, b *bus.Bus, cfg Config, log *logger.Logger) Services {
	session := services.NewSessionService(st, apic, b, log)
	progress := services.NewProgressService(st, apic, b, session, log)
	courses := services.NewCourseService(st, apic, b, session, progress, log)
	xp := services.NewXPService(st, apic, b, session, log)
	shop := services.NewShopService(apic, b, log)

	syncer := services.NewSyncer(st, b, session, progress, courses, log)
	if cfg.SyncInterval > 0 {
		syncer.SetInterval(cfg.SyncInterval)
	}

	return Services{
		Session:  session,
		Progress: progress,
		Courses:  courses,
		XP:       xp,
		Shop:     shop,
		Syncer:   syncer,
	}
}
