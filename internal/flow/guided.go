package flow

import (
	"strings"

	"github.com/amanullahtanweer/unibot/internal/recommend"
	"github.com/elliotchance/pie/v2"
)

const (
	nodeProfileVibe   = "profile_vibe"
	nodeProfileEnergy = "profile_energy"
	nodeProfileSocial = "profile_social"
	nodeProfileBudget = "profile_budget"
	nodeSportsKind    = "sports_kind"
	nodeSportsTime    = "sports_time"
	nodeSportsPlace   = "sports_place"
	nodeSportsPartner = "sports_partner"
)

const (
	msgProfileIntro     = "First, tell me about you. No right answers, just vibes."
	promptProfileVibe   = "Q1) What vibe are you craving this week? (chill / hype / creative / debate / tech / startup / international)"
	promptProfileEnergy = "Q2) Energy level today? (low / medium / high)"
	promptProfileSocial = "Q3) Social mode? (solo / with friends / either)"
	promptProfileBudget = "Q4) Budget feeling? (tight / normal / splurge)"

	promptGuidedClarify = "That could be a few things. Is it mainly studying, sports, or social activities?"
	promptMenu          = "Pick one: [1] Studying  [2] Sports  [3] Social"

	promptGuidedStudying = "Are you struggling with something, or do you just want practical info? (struggling/practical)"
	promptGuidedShare    = "Would you like to share this with other students? (yes/no)"
	promptGuidedMind     = "Do you have a specific sport in mind? (yes/no)"
	promptGuidedWhich    = "Which sport?"
	promptSportsKind     = "What kind of sport are you feeling? (team/ball/cardio/strength/martial/racket)"
	promptSportsTime     = "How much time commitment do you prefer? (low/medium/high)"
	promptSportsPlace    = "Indoor or outdoor vibes? (indoor/outdoor/any)"
	promptSportsPartner  = "Going solo or with friends? (solo/partner/friends)"
	promptGuidedSocial   = "Are you looking for upcoming events or to join an association? (events/association)"

	msgGuidedStudyGroup  = "Suggestion: join a study group. Peer support, shared notes and accountability."
	msgGuidedAdvisor     = "Suggestion: contact the student advisor for confidential, tailored guidance."
	msgGuidedStudentDesk = "Suggestion: use the Student Desk contact form for enrolment, timetables and other practical matters."
	msgGuidedAvailable   = "Available on campus. Check the University Sports Centre to register."
	msgGuidedNotListed   = "Not on the list. Let's personalize a recommendation with a few quick questions."
	msgGuidedExplore     = "Cool, let's find your match with a few quick questions."
)

// buildProfile asks the four profile questions guided mode starts with.
func (e *Engine) buildProfile() error {
	if err := e.say(msgProfileIntro); err != nil {
		return err
	}

	questions := []struct {
		node, prompt string
		dst          *string
	}{
		{nodeProfileVibe, promptProfileVibe, &e.profile.Vibe},
		{nodeProfileEnergy, promptProfileEnergy, &e.profile.Energy},
		{nodeProfileSocial, promptProfileSocial, &e.profile.SocialMode},
		{nodeProfileBudget, promptProfileBudget, &e.profile.Budget},
	}
	for _, q := range questions {
		ans, err := e.ask(q.node, q.prompt)
		if err != nil {
			return err
		}
		*q.dst = strings.TrimSpace(ans)
	}

	e.record(Record{Event: EventProfile, Details: map[string]string{
		"vibe":        e.profile.Vibe,
		"energy":      e.profile.Energy,
		"social_mode": e.profile.SocialMode,
		"budget":      e.profile.Budget,
	}})
	return nil
}

func (e *Engine) guidedStudying() error {
	ans, err := e.ask(nodeStudyingNeed, promptGuidedStudying)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(ans), "strug") {
		return e.recommend(recStudentDesk, "Student Desk", msgGuidedStudentDesk)
	}

	ans, err = e.ask(nodeStudyingShare, promptGuidedShare)
	if err != nil {
		return err
	}
	if startsWithYes(ans) {
		return e.recommend(recStudyGroup, "study group", msgGuidedStudyGroup)
	}
	return e.recommend(recAdvisor, "student advisor", msgGuidedAdvisor)
}

// guidedSports checks an exact sport name, then falls back to the
// four-question multi-criterion recommendation.
func (e *Engine) guidedSports() error {
	ans, err := e.ask(nodeSportsMind, promptGuidedMind)
	if err != nil {
		return err
	}

	intro := msgGuidedExplore
	if startsWithYes(ans) {
		name, err := e.ask(nodeSportsWhich, promptGuidedWhich)
		if err != nil {
			return err
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if pie.Contains(e.a.Catalog.SportSet(), name) {
			return e.recommend(recSportsCentre, name, msgGuidedAvailable)
		}
		intro = msgGuidedNotListed
	}
	if err := e.say(intro); err != nil {
		return err
	}

	var p recommend.Preferences
	questions := []struct {
		node, prompt string
		dst          *string
	}{
		{nodeSportsKind, promptSportsKind, &p.Kind},
		{nodeSportsTime, promptSportsTime, &p.TimeCommitment},
		{nodeSportsPlace, promptSportsPlace, &p.Place},
		{nodeSportsPartner, promptSportsPartner, &p.Partner},
	}
	for _, q := range questions {
		if *q.dst, err = e.ask(q.node, q.prompt); err != nil {
			return err
		}
	}

	pick := e.a.Sports.RecommendFor(e.a.Catalog.Sports, p)
	return e.recommend(recSport, pick, "Recommendation: "+pick)
}

// guidedSocial picks events or an association from the session profile.
func (e *Engine) guidedSocial() error {
	ans, err := e.ask(nodeSocialKind, promptGuidedSocial)
	if err != nil {
		return err
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(ans)), "event") {
		picks := e.a.Events.ForProfile(e.a.Catalog.Events, e.profile, e.opts.SoonestEvents)
		return e.listEvents("Handpicked events for your vibe and energy:", picks)
	}

	pick := e.a.Associations.ForVibe(e.a.Catalog.Associations, e.profile.Vibe)
	return e.recommend(recAssociation, pick, "Try the association: "+pick)
}

// startsWithYes reads a yes/no answer: yes, yep, yeah and y all start with "y".
func startsWithYes(ans string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ans)), "y")
}
