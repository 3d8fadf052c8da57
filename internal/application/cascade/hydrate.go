package cascade

import (
	"context"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
)

// Hydrate resolves the chain from a deep link to a class group: it fetches the
// class group, selects its school, waits for the school's class groups, then
// selects the class group and loads its dependent data. Descendants of the
// school are not invalidated along the way, so the class group survives.
//
// Select is rejected until Hydrate returns. A second Hydrate while one is
// running fails with ErrBusy.
func (c *Controller) Hydrate(ctx context.Context, classGroupID shared.ID) error {
	if c.depth < LevelClassGroup {
		return shared.InvalidOperation("cascade", "Hydrate", "chain has no class group level")
	}
	if !classGroupID.IsValid() {
		return shared.NewDomainError("cascade", "Hydrate", shared.ErrInvalidID, "invalid class group id")
	}

	c.mu.Lock()
	if c.hydrating {
		c.mu.Unlock()
		return shared.WrapError("cascade", "Hydrate", shared.ErrInvalidOperation, "hydration already running", shared.ErrBusy)
	}
	c.hydrating = true
	c.assign(LevelSchool, 0)
	c.clearErr()
	c.mu.Unlock()

	log := c.log.With(logger.Operation("Hydrate"), logger.ClassGroupID(classGroupID.Int64()))
	err := c.hydrate(ctx, classGroupID)

	c.mu.Lock()
	c.hydrating = false
	c.loading.ClassGroups, c.loading.Subjects, c.loading.Roster = false, false, false
	c.mu.Unlock()

	if err != nil {
		log.Warn("deep link hydration failed", logger.Err(err))
		return err
	}
	log.Debug("deep link hydrated")
	return nil
}

func (c *Controller) hydrate(ctx context.Context, classGroupID shared.ID) error {
	// 1. leaf entity tells us its parent
	cg, err := c.dir.GetClassGroupByID(ctx, classGroupID)
	if err != nil {
		return c.hydrateFail(LevelClassGroup, err)
	}

	// 2. root options, only if not loaded yet
	c.mu.Lock()
	needSchools := c.schools == nil
	if needSchools {
		c.loading.Schools = true
	}
	c.mu.Unlock()
	if needSchools {
		schools, err := c.dir.ListSchools(ctx)
		if err != nil {
			return c.hydrateFail(LevelSchool, err)
		}
		c.mu.Lock()
		c.schools = nonNil(schools)
		c.loading.Schools = false
		c.mu.Unlock()
	}

	c.mu.Lock()
	_, ok := academic.FindSchool(c.schools, cg.SchoolID)
	if !ok {
		c.mu.Unlock()
		return c.hydrateFail(LevelSchool, shared.ErrSchoolNotFound)
	}
	c.sel[LevelSchool] = cg.SchoolID
	c.loading.ClassGroups = true
	c.mu.Unlock()

	// 3. the school's class groups must resolve before the class group is set
	groups, err := c.dir.ListClassGroups(ctx, cg.SchoolID)
	if err != nil {
		return c.hydrateFail(LevelSchool, err)
	}
	if found, ok := academic.FindClassGroup(groups, classGroupID); ok {
		cg = found
	} else {
		groups = append(groups, cg)
	}

	c.mu.Lock()
	c.classGroups = nonNil(groups)
	c.loading.ClassGroups = false
	c.sel[LevelClassGroup] = classGroupID
	c.classGroup = &cg
	plan := c.planFetch(LevelClassGroup, classGroupID)
	c.mu.Unlock()

	// 4. dependent data of the class group
	if plan.empty() {
		return nil
	}
	res, err := c.run(ctx, plan)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyFetch(plan, res, err)
	if err != nil {
		return c.fail(LevelClassGroup, "Hydrate", err)
	}
	return nil
}

func (c *Controller) hydrateFail(level Level, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if shared.IsNotFound(err) {
		c.err = err
		c.errLevel = level
		return err
	}
	return c.fail(level, "Hydrate", err)
}
