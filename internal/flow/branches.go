package flow

import (
	"fmt"
	"strings"

	"github.com/amanullahtanweer/unibot/internal/events"
	"github.com/amanullahtanweer/unibot/internal/recommend"
)

// Node names, as they appear in session records.
const (
	nodeGreeting      = "greeting"
	nodeClarify       = "clarify"
	nodeMenu          = "menu"
	nodeContinue      = "continue"
	nodeContinueRetry = "continue_retry"

	nodeStudyingNeed  = "studying_need"
	nodeStudyingShare = "studying_share"
	nodeSportsMind    = "sports_in_mind"
	nodeSportsWhich   = "sports_which"
	nodeSportsDescr   = "sports_describe"
	nodeSocialKind    = "social_kind"
	nodeSocialAssoc   = "social_association"
)

const (
	promptGreeting      = "Hello! What can I help you with today?"
	promptClarify       = "I didn't quite catch that. Tell me more: are we talking studies, sports, or social life?"
	promptAnythingElse  = "Do you need anything else?"
	promptContinueRetry = "Got it. Do you want to continue or end it here?"

	promptStudyingNeed  = "Tell me what you need around studies right now. Are you struggling with something, or just after practical info?"
	promptStudyingShare = "Would you be comfortable sharing this with other students, or would you prefer to keep it private?"
	promptSportsMind    = "Tell me about the sport situation. Do you already have a specific sport in mind, or are you exploring?"
	promptSportsWhich   = "Which sport do you have in mind?"
	promptSportsDescr   = "Describe what you want from a sport (e.g. team vibes, ball games, cardio, strength):"
	promptSocialKind    = "What are you looking for socially: upcoming events to attend, or joining an association? Say it in your own words."
	promptSocialAssoc   = "Describe what kind of association fits you (e.g. international, artistic, debate, business, wellness, music, film, science, language):"

	msgUnresolved        = "I couldn't confidently infer the topic from free text this time."
	msgContinueWith      = "Cool, continuing with that."
	msgContinueFresh     = "Cool, tell me what you need next."
	msgFarewell          = "Got you. Closing the chat. Have a solid day!"
	msgRetryContinueWith = "Alright, continuing with that."
	msgRetryFarewell     = "All good. Ending here, take care!"

	msgStudyGroup    = "Suggestion: join a study group."
	msgAdvisor       = "Suggestion: contact the student advisor."
	msgStudentDesk   = "Suggestion: use the Student Desk contact form for practical info."
	msgSportsCentre  = "That sport is available. Check the University Sports Centre website."
	msgSportNotFound = "I couldn't find that exact sport on the campus list."
	msgNoEvents      = "There are no campus events on the list right now."
)

// Recommendation kinds.
const (
	recStudyGroup   = "study_group"
	recAdvisor      = "advisor"
	recStudentDesk  = "student_desk"
	recSportsCentre = "sports_centre"
	recSport        = "sport"
	recEvents       = "events"
	recAssociation  = "association"
)

// studying: struggling and willing to share leads to a study group,
// struggling alone to the advisor, anything else to the Student Desk.
func (e *Engine) studying() error {
	b := e.a.Tables.Branches

	ans, err := e.ask(nodeStudyingNeed, promptStudyingNeed)
	if err != nil {
		return err
	}
	if !b.Struggle.AnyIn(strings.ToLower(ans)) {
		return e.recommend(recStudentDesk, "Student Desk", msgStudentDesk)
	}

	ans, err = e.ask(nodeStudyingShare, promptStudyingShare)
	if err != nil {
		return err
	}
	if b.Share.AnyIn(strings.ToLower(ans)) {
		return e.recommend(recStudyGroup, "study group", msgStudyGroup)
	}
	return e.recommend(recAdvisor, "student advisor", msgAdvisor)
}

// sports refers a named catalog sport to the Sports Centre; otherwise it asks
// for a description and recommends a sport from the catalog.
func (e *Engine) sports() error {
	ans, err := e.ask(nodeSportsMind, promptSportsMind)
	if err != nil {
		return err
	}
	low := strings.ToLower(ans)
	if sport, ok := e.namedSport(low); ok {
		return e.recommend(recSportsCentre, sport, msgSportsCentre)
	}

	if e.a.Tables.Branches.Affirmative.AnyPhraseIn(low) {
		name, err := e.ask(nodeSportsWhich, promptSportsWhich)
		if err != nil {
			return err
		}
		if sport, ok := e.namedSport(strings.ToLower(name)); ok {
			return e.recommend(recSportsCentre, sport, msgSportsCentre)
		}
		if err := e.say(msgSportNotFound); err != nil {
			return err
		}
	}

	descr, err := e.ask(nodeSportsDescr, promptSportsDescr)
	if err != nil {
		return err
	}
	pick := e.a.Sports.Recommend(e.a.Catalog.Sports, descr)
	return e.recommend(recSport, pick, "Recommendation: "+pick)
}

// social lists the soonest events when the answer is about events, and
// otherwise recommends an association from a description.
func (e *Engine) social() error {
	ans, err := e.ask(nodeSocialKind, promptSocialKind)
	if err != nil {
		return err
	}
	if e.a.Tables.Branches.Events.AnyIn(strings.ToLower(ans)) {
		top := recommend.Soonest(events.Sort(e.a.Catalog.Events), e.opts.SoonestEvents)
		return e.listEvents(fmt.Sprintf("The %d soonest campus events:", len(top)), top)
	}

	pref, err := e.ask(nodeSocialAssoc, promptSocialAssoc)
	if err != nil {
		return err
	}
	pick := e.a.Associations.Recommend(e.a.Catalog.Associations, pref)
	return e.recommend(recAssociation, pick, "Try joining: "+pick)
}

func (e *Engine) listEvents(header string, labels []string) error {
	if len(labels) == 0 {
		return e.say(msgNoEvents)
	}
	var sb strings.Builder
	sb.WriteString(header)
	for _, l := range labels {
		sb.WriteString("\n • ")
		sb.WriteString(l)
	}
	return e.recommend(recEvents, strings.Join(labels, "; "), sb.String())
}

// namedSport returns the first catalog sport mentioned in text.
func (e *Engine) namedSport(text string) (string, bool) {
	for _, s := range e.a.Catalog.SportSet() {
		if strings.Contains(text, s) {
			return s, true
		}
	}
	return "", false
}
