// Command alfurqan is the CLI for the al-Furqan word-indexed Quran
// study store. It manages the scripture corpus, the lexical imports,
// per-user annotations, moderation and backups against an embedded
// SQLite database.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/annotation"
	"github.com/hafizlab/alfurqan/core/backup"
	"github.com/hafizlab/alfurqan/core/moderation"
	"github.com/hafizlab/alfurqan/core/scripture"
	"github.com/hafizlab/alfurqan/core/sqlite"
	"github.com/hafizlab/alfurqan/core/user"
	"github.com/hafizlab/alfurqan/internal/logging"
	"github.com/hafizlab/alfurqan/internal/validation"
)

const version = "0.2.0"

// CLI defines the command-line interface for alfurqan.
var CLI struct {
	// Global flags
	DB        string `name:"db" env:"ALFURQAN_DB" default:"alfurqan.db" help:"Path to the SQLite database" type:"path"`
	As        string `name:"as" env:"ALFURQAN_AS" help:"Act as this username (defaults to anonymous)"`
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format"`

	// Command groups (noun-first organization)
	Init    InitCmd      `cmd:"" help:"Create the database schema"`
	Text    TextGroup    `cmd:"" help:"Quran text and translations"`
	Dict    DictGroup    `cmd:"" help:"Word dictionary and ayah-word mapping"`
	Surah   SurahGroup   `cmd:"" help:"Surah listings"`
	Ayah    AyahGroup    `cmd:"" help:"Ayah text and word breakdown"`
	Tafsir  TafsirGroup  `cmd:"" help:"Personal tafsir notes"`
	Theme   ThemeGroup   `cmd:"" help:"Thematic ayah collections"`
	Hifz    HifzGroup    `cmd:"" help:"Memorization tracking"`
	Recite  ReciteGroup  `cmd:"" help:"Recitation log"`
	Notes   NotesGroup   `cmd:"" help:"Root word notes"`
	Users   UsersGroup   `cmd:"" help:"Account management"`
	Mod     ModGroup     `cmd:"" help:"Contribution moderation"`
	Backup  BackupGroup  `cmd:"" help:"Per-user backup export and import"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// session bundles the stores a command works against, with the actor
// resolved from the --as flag.
type session struct {
	text        *scripture.Store
	importer    *scripture.Importer
	annotations *annotation.Store
	users       *user.Store
	mod         *moderation.Engine
	exchange    *backup.Exchange
	actor       access.Actor
	close       func() error
}

func openSession() (*session, error) {
	db, err := sqlite.Open(CLI.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	s := &session{
		text:        scripture.New(db),
		importer:    scripture.NewImporter(db),
		users:       user.New(db),
		mod:         moderation.NewEngine(db),
		actor:       access.Anonymous,
		close:       db.Close,
	}
	s.annotations = annotation.New(db, s.text)
	s.exchange = backup.NewExchange(s.annotations)

	if CLI.As != "" {
		u, err := s.users.ByUsername(CLI.As)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("resolve --as user: %w", err)
		}
		s.actor = u.Actor()
	}
	return s, nil
}

func printReport(kind string, r *scripture.Report) {
	fmt.Printf("%s: imported %d, skipped %d\n", kind, r.Imported, r.Skipped)
	for _, d := range r.Diagnostics {
		fmt.Printf("  ! %s\n", d)
	}
}

// InitCmd creates or migrates the database schema.
type InitCmd struct{}

func (c *InitCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()
	info := sqlite.GetInfo()
	fmt.Printf("Initialized: %s (driver %s)\n", CLI.DB, info.DriverName)
	return nil
}

// TextGroup contains corpus-level text operations.
type TextGroup struct {
	Import       TextImportCmd       `cmd:"" help:"Import the Quran text from a Tanzil XML file"`
	Translations TextTranslationsCmd `cmd:"" help:"Import per-ayah translations from CSV"`
}

// TextImportCmd imports surahs and ayahs from a Tanzil-format XML file.
type TextImportCmd struct {
	Path string `arg:"" help:"Path to the XML file" type:"existingfile"`
}

func (c *TextImportCmd) Run() error {
	path, err := validation.ValidateImportFile(c.Path)
	if err != nil {
		return fmt.Errorf("invalid import file: %w", err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := s.importer.ImportTextXML(f)
	if err != nil {
		return err
	}
	printReport("text", report)
	return nil
}

// TextTranslationsCmd imports per-ayah translations from a CSV file.
type TextTranslationsCmd struct {
	Path       string `arg:"" help:"Path to the CSV file" type:"existingfile"`
	Lang       string `required:"" help:"Translation language code (e.g. en, ur)"`
	SkipHeader bool   `help:"Skip the first CSV row"`
}

func (c *TextTranslationsCmd) Run() error {
	path, err := validation.ValidateImportFile(c.Path)
	if err != nil {
		return fmt.Errorf("invalid import file: %w", err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, diags, err := scripture.ReadTranslationCSV(f, c.SkipHeader)
	if err != nil {
		return err
	}
	for _, d := range diags {
		fmt.Printf("  ! %s\n", d)
	}
	report, err := s.importer.ImportAyahTranslations(rows, c.Lang)
	if err != nil {
		return err
	}
	printReport("translations", report)
	return nil
}

// DictGroup contains dictionary and mapping operations.
type DictGroup struct {
	Import DictImportCmd `cmd:"" help:"Import word dictionary rows from CSV"`
	Map    DictMapCmd    `cmd:"" help:"Import ayah-word position mappings from CSV"`
	Search DictSearchCmd `cmd:"" help:"Search dictionary words by text"`
	Show   DictShowCmd   `cmd:"" help:"Show one dictionary word and its meanings"`
}

// DictImportCmd imports dictionary rows.
type DictImportCmd struct {
	Path       string `arg:"" help:"Path to the CSV file" type:"existingfile"`
	SkipHeader bool   `help:"Skip the first CSV row"`
}

func (c *DictImportCmd) Run() error {
	path, err := validation.ValidateImportFile(c.Path)
	if err != nil {
		return fmt.Errorf("invalid import file: %w", err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, diags, err := scripture.ReadDictionaryCSV(f, c.SkipHeader)
	if err != nil {
		return err
	}
	for _, d := range diags {
		fmt.Printf("  ! %s\n", d)
	}
	report, err := s.importer.ImportDictionary(rows)
	if err != nil {
		return err
	}
	printReport("dictionary", report)
	return nil
}

// DictMapCmd imports word position mappings.
type DictMapCmd struct {
	Path       string `arg:"" help:"Path to the CSV file" type:"existingfile"`
	SkipHeader bool   `help:"Skip the first CSV row"`
}

func (c *DictMapCmd) Run() error {
	path, err := validation.ValidateImportFile(c.Path)
	if err != nil {
		return fmt.Errorf("invalid import file: %w", err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, diags, err := scripture.ReadMappingCSV(f, c.SkipHeader)
	if err != nil {
		return err
	}
	for _, d := range diags {
		fmt.Printf("  ! %s\n", d)
	}
	report, err := s.importer.ImportWordPositionMapping(rows)
	if err != nil {
		return err
	}
	printReport("mapping", report)
	return nil
}

// DictSearchCmd searches dictionary words by Arabic text.
type DictSearchCmd struct {
	Query string `arg:"" help:"Substring to search for"`
}

func (c *DictSearchCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	words, err := s.text.SearchWords(c.Query)
	if err != nil {
		return err
	}
	for _, w := range words {
		fmt.Printf("%d\t%s\t%s\t%s\n", w.ID, w.Text, w.UrMeaning, w.EnMeaning)
	}
	fmt.Printf("%d word(s)\n", len(words))
	return nil
}

// DictShowCmd shows one dictionary word.
type DictShowCmd struct {
	ID int64 `arg:"" help:"Dictionary word id"`
}

func (c *DictShowCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	w, err := s.text.Word(c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Word %d: %s\n", w.ID, w.Text)
	if w.UrMeaning != "" {
		fmt.Printf("  ur: %s\n", w.UrMeaning)
	}
	if w.EnMeaning != "" {
		fmt.Printf("  en: %s\n", w.EnMeaning)
	}
	return nil
}

// SurahGroup contains surah listings.
type SurahGroup struct {
	List SurahListCmd `cmd:"" help:"List all surahs"`
}

// SurahListCmd lists the surahs in the store.
type SurahListCmd struct{}

func (c *SurahListCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	surahs, err := s.text.ListSurahs()
	if err != nil {
		return err
	}
	for _, su := range surahs {
		name := su.NameArabic
		if su.NameEnglish != "" {
			name = su.NameEnglish
		}
		fmt.Printf("%3d  %-20s %4d ayahs\n", su.Number, name, su.AyahCount)
	}
	return nil
}

// AyahGroup contains ayah-level viewing operations.
type AyahGroup struct {
	Show  AyahShowCmd  `cmd:"" help:"Show one ayah with its translations"`
	Words AyahWordsCmd `cmd:"" help:"Show the word-by-word breakdown of one ayah"`
}

// AyahShowCmd prints one ayah.
type AyahShowCmd struct {
	Surah int `arg:"" help:"Surah number"`
	Ayah  int `arg:"" help:"Ayah number"`
}

func (c *AyahShowCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	a, err := s.text.Ayah(c.Surah, c.Ayah)
	if err != nil {
		return err
	}
	fmt.Printf("%d:%d  %s\n", a.Surah, a.Number, a.ArabicText)
	for lang, text := range a.Translations {
		fmt.Printf("  [%s] %s\n", lang, text)
	}
	return nil
}

// AyahWordsCmd prints the ordered word breakdown of one ayah.
type AyahWordsCmd struct {
	Surah int `arg:"" help:"Surah number"`
	Ayah  int `arg:"" help:"Ayah number"`
}

func (c *AyahWordsCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	words, err := s.text.WordsForAyah(c.Surah, c.Ayah)
	if err != nil {
		return err
	}
	for _, w := range words {
		fmt.Printf("%2d  %-24s %-24s %s\n", w.Position, w.Word.Text, w.Word.UrMeaning, w.Word.EnMeaning)
	}
	return nil
}

// TafsirGroup contains personal tafsir operations.
type TafsirGroup struct {
	Save TafsirSaveCmd `cmd:"" help:"Save tafsir notes for one ayah"`
	List TafsirListCmd `cmd:"" help:"List your tafsir notes"`
	Show TafsirShowCmd `cmd:"" help:"Show community tafsir for one ayah"`
}

// TafsirSaveCmd saves the actor's tafsir on one ayah.
type TafsirSaveCmd struct {
	Surah int    `arg:"" help:"Surah number"`
	Ayah  int    `arg:"" help:"Ayah number"`
	Notes string `arg:"" help:"Tafsir text"`
}

func (c *TafsirSaveCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	t, err := s.annotations.SaveTafsir(s.actor, c.Surah, c.Ayah, c.Notes)
	if err != nil {
		return err
	}
	fmt.Printf("Saved tafsir %d on %d:%d\n", t.ID, t.Surah, t.Ayah)
	return nil
}

// TafsirListCmd lists the actor's own tafsir notes.
type TafsirListCmd struct{}

func (c *TafsirListCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	entries, err := s.annotations.ListTafsir(s.actor)
	if err != nil {
		return err
	}
	for _, t := range entries {
		fmt.Printf("%d:%d [%s]\n  %s\n", t.Surah, t.Ayah, t.Visibility, t.Notes)
	}
	return nil
}

// TafsirShowCmd shows the tafsir visible to the actor for one ayah.
type TafsirShowCmd struct {
	Surah int `arg:"" help:"Surah number"`
	Ayah  int `arg:"" help:"Ayah number"`
}

func (c *TafsirShowCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	entries, err := s.annotations.ListAyahTafsir(s.actor, c.Surah, c.Ayah)
	if err != nil {
		return err
	}
	for _, t := range entries {
		fmt.Printf("user %d [%s]\n  %s\n", t.UserID, t.Visibility, t.Notes)
	}
	return nil
}

// ThemeGroup contains theme operations.
type ThemeGroup struct {
	Save   ThemeSaveCmd   `cmd:"" help:"Create or replace a theme"`
	List   ThemeListCmd   `cmd:"" help:"List themes visible to you"`
	Show   ThemeShowCmd   `cmd:"" help:"Show one of your themes by name"`
	Delete ThemeDeleteCmd `cmd:"" help:"Delete a theme"`
}

// ThemeSaveCmd creates or replaces a theme. Requesting community
// visibility from a non-Ulama account files a moderation contribution.
type ThemeSaveCmd struct {
	Name       string `arg:"" help:"Theme name"`
	Refs       string `required:"" help:"Ayah references, e.g. '2-155, 2:153' or ranges '2-153-157'"`
	Desc       string `help:"Theme description"`
	Visibility string `default:"Private" enum:"Private,CommunityPending,CommunityApproved,UlamaPublic" help:"Requested visibility"`
}

func (c *ThemeSaveCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	result, err := s.annotations.SaveTheme(s.actor, c.Name, c.Desc, c.Refs, annotation.Visibility(c.Visibility))
	if err != nil {
		return err
	}
	for _, d := range result.Diagnostics {
		fmt.Printf("  ! %s\n", d)
	}
	fmt.Printf("Saved theme %d %q [%s], %d ayah(s)\n",
		result.Theme.ID, result.Theme.Name, result.Theme.Visibility, len(result.Theme.Ayahs))

	if result.NeedsModeration {
		sub, err := s.mod.Submit(s.actor, moderation.TypeTheme, result.Theme.ID, c.Desc)
		if err != nil {
			return err
		}
		fmt.Printf("Filed for review: contribution %s\n", sub.Contribution.ID)
	}
	return nil
}

// ThemeListCmd lists themes.
type ThemeListCmd struct {
	Intent string `default:"browse" enum:"browse,own,community,queue" help:"Listing intent"`
}

func parseIntent(s string) annotation.QueryIntent {
	switch s {
	case "own":
		return annotation.IntentOwn
	case "community":
		return annotation.IntentCommunity
	case "queue":
		return annotation.IntentReviewQueue
	}
	return annotation.IntentBrowse
}

func (c *ThemeListCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	themes, err := s.annotations.ListThemes(s.actor, parseIntent(c.Intent))
	if err != nil {
		return err
	}
	for _, t := range themes {
		refs := make([]string, len(t.Ayahs))
		for i, r := range t.Ayahs {
			refs[i] = r.String()
		}
		fmt.Printf("%d  %q [%s]  %s\n", t.ID, t.Name, t.Visibility, strings.Join(refs, " "))
	}
	return nil
}

// ThemeShowCmd shows one of the actor's themes by name.
type ThemeShowCmd struct {
	Name string `arg:"" help:"Theme name"`
}

func (c *ThemeShowCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	t, err := s.annotations.ThemeByName(s.actor, c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Theme %d %q [%s]\n", t.ID, t.Name, t.Visibility)
	if t.Description != "" {
		fmt.Printf("  %s\n", t.Description)
	}
	for _, ref := range t.Ayahs {
		a, err := s.text.Ayah(ref.Surah, ref.Ayah)
		if err != nil {
			fmt.Printf("  %s\n", ref)
			continue
		}
		fmt.Printf("  %s  %s\n", ref, a.ArabicText)
	}
	return nil
}

// ThemeDeleteCmd deletes a theme by id.
type ThemeDeleteCmd struct {
	ID int64 `arg:"" help:"Theme id"`
}

func (c *ThemeDeleteCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.annotations.DeleteTheme(s.actor, c.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted theme %d\n", c.ID)
	return nil
}

// HifzGroup contains memorization tracking operations.
type HifzGroup struct {
	Set     HifzSetCmd     `cmd:"" help:"Set memorization status for one ayah"`
	List    HifzListCmd    `cmd:"" help:"List your memorization records"`
	Summary HifzSummaryCmd `cmd:"" help:"Show per-status ayah counts"`
}

// HifzSetCmd sets the actor's status for one ayah.
type HifzSetCmd struct {
	Surah  int    `arg:"" help:"Surah number"`
	Ayah   int    `arg:"" help:"Ayah number"`
	Status string `arg:"" enum:"NotStarted,Memorizing,Memorized,Revising" help:"Memorization status"`
}

func (c *HifzSetCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	h, err := s.annotations.UpdateHifz(s.actor, c.Surah, c.Ayah, annotation.HifzStatus(c.Status))
	if err != nil {
		return err
	}
	fmt.Printf("%d:%d -> %s (updated %s)\n", h.Surah, h.Ayah, h.Status, h.UpdatedAt)
	return nil
}

// HifzListCmd lists the actor's records.
type HifzListCmd struct{}

func (c *HifzListCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	records, err := s.annotations.ListHifz(s.actor)
	if err != nil {
		return err
	}
	for _, h := range records {
		fmt.Printf("%d:%d  %-12s %s\n", h.Surah, h.Ayah, h.Status, h.UpdatedAt)
	}
	return nil
}

// HifzSummaryCmd prints per-status counts.
type HifzSummaryCmd struct{}

func (c *HifzSummaryCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	summary, err := s.annotations.HifzSummary(s.actor)
	if err != nil {
		return err
	}
	for _, status := range []annotation.HifzStatus{
		annotation.HifzNotStarted, annotation.HifzMemorizing,
		annotation.HifzMemorized, annotation.HifzRevising,
	} {
		if n := summary[status]; n > 0 {
			fmt.Printf("%-12s %d\n", status, n)
		}
	}
	return nil
}

// ReciteGroup contains recitation log operations.
type ReciteGroup struct {
	Log    ReciteLogCmd    `cmd:"" help:"Log a recitation session"`
	List   ReciteListCmd   `cmd:"" help:"List your recitation log"`
	Delete ReciteDeleteCmd `cmd:"" help:"Delete one log entry"`
}

// ReciteLogCmd appends one recitation entry.
type ReciteLogCmd struct {
	Surah int    `arg:"" help:"Surah number"`
	From  int    `arg:"" help:"First ayah recited"`
	To    int    `arg:"" help:"Last ayah recited"`
	Notes string `help:"Session notes"`
}

func (c *ReciteLogCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	e, err := s.annotations.LogRecitation(s.actor, c.Surah, c.From, c.To, c.Notes)
	if err != nil {
		return err
	}
	fmt.Printf("Logged %d: surah %d ayahs %d-%d\n", e.ID, e.Surah, e.AyahFrom, e.AyahTo)
	return nil
}

// ReciteListCmd lists the actor's log, most recent first.
type ReciteListCmd struct{}

func (c *ReciteListCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	entries, err := s.annotations.ListRecitations(s.actor)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%d  %s  surah %d ayahs %d-%d  %s\n",
			e.ID, e.RecitedAt, e.Surah, e.AyahFrom, e.AyahTo, e.Notes)
	}
	return nil
}

// ReciteDeleteCmd deletes one of the actor's entries.
type ReciteDeleteCmd struct {
	ID int64 `arg:"" help:"Log entry id"`
}

func (c *ReciteDeleteCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.annotations.DeleteRecitation(s.actor, c.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted entry %d\n", c.ID)
	return nil
}

// NotesGroup contains root word note operations.
type NotesGroup struct {
	Save NotesSaveCmd `cmd:"" help:"Save a note on an Arabic root word"`
	List NotesListCmd `cmd:"" help:"List root notes visible to you"`
}

// NotesSaveCmd upserts the actor's note on one root word.
type NotesSaveCmd struct {
	Root string `arg:"" help:"Root word"`
	Desc string `arg:"" help:"Note text"`
}

func (c *NotesSaveCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	n, err := s.annotations.SaveRootNote(s.actor, c.Root, c.Desc)
	if err != nil {
		return err
	}
	fmt.Printf("Saved note %d on root %q\n", n.ID, n.RootWord)
	return nil
}

// NotesListCmd lists root notes.
type NotesListCmd struct {
	Intent string `default:"browse" enum:"browse,own,community,queue" help:"Listing intent"`
}

func (c *NotesListCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	notes, err := s.annotations.ListRootNotes(s.actor, parseIntent(c.Intent))
	if err != nil {
		return err
	}
	for _, n := range notes {
		fmt.Printf("%-12s [%s]  %s\n", n.RootWord, n.Visibility, n.Description)
	}
	return nil
}

// UsersGroup contains account management operations.
type UsersGroup struct {
	Add     UsersAddCmd     `cmd:"" help:"Create an account"`
	List    UsersListCmd    `cmd:"" help:"List accounts"`
	SetRole UsersSetRoleCmd `cmd:"" name:"set-role" help:"Change an account's role"`
	Delete  UsersDeleteCmd  `cmd:"" help:"Delete an account and its annotations"`
	Seed    UsersSeedCmd    `cmd:"" help:"Create the default account set"`
}

// UsersAddCmd creates one account.
type UsersAddCmd struct {
	Username string `arg:"" help:"Username"`
	Password string `arg:"" help:"Password"`
	Role     string `default:"User" enum:"Public,User,Ulama,Admin" help:"Account role"`
}

func (c *UsersAddCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	role, err := access.ParseRole(c.Role)
	if err != nil {
		return err
	}
	u, err := s.users.Create(c.Username, c.Password, role)
	if err != nil {
		return err
	}
	fmt.Printf("Created user %d %q [%s]\n", u.ID, u.Username, u.Role)
	return nil
}

// UsersListCmd lists all accounts.
type UsersListCmd struct{}

func (c *UsersListCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	users, err := s.users.List()
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Printf("%3d  %-20s %s\n", u.ID, u.Username, u.Role)
	}
	return nil
}

// UsersSetRoleCmd changes an account's role. Admin only.
type UsersSetRoleCmd struct {
	Username string `arg:"" help:"Username"`
	Role     string `arg:"" enum:"Public,User,Ulama,Admin" help:"New role"`
}

func (c *UsersSetRoleCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	target, err := s.users.ByUsername(c.Username)
	if err != nil {
		return err
	}
	role, err := access.ParseRole(c.Role)
	if err != nil {
		return err
	}
	u, err := s.users.SetRole(s.actor, target.ID, role)
	if err != nil {
		return err
	}
	fmt.Printf("%q is now %s\n", u.Username, u.Role)
	return nil
}

// UsersDeleteCmd deletes an account. Admin only.
type UsersDeleteCmd struct {
	Username string `arg:"" help:"Username"`
}

func (c *UsersDeleteCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	target, err := s.users.ByUsername(c.Username)
	if err != nil {
		return err
	}
	if err := s.users.Delete(s.actor, target.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted %q\n", c.Username)
	return nil
}

// UsersSeedCmd creates the default admin/ulama/user accounts.
type UsersSeedCmd struct{}

func (c *UsersSeedCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	n, err := s.users.Seed(nil)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d account(s)\n", n)
	return nil
}

// ModGroup contains moderation operations.
type ModGroup struct {
	Submit  ModSubmitCmd  `cmd:"" help:"Submit a contribution for review"`
	Queue   ModQueueCmd   `cmd:"" help:"List pending contributions"`
	Approve ModApproveCmd `cmd:"" help:"Approve a pending contribution"`
	Reject  ModRejectCmd  `cmd:"" help:"Reject a pending contribution"`
}

// ModSubmitCmd files a contribution directly.
type ModSubmitCmd struct {
	Type      string `arg:"" enum:"WordMeaning,Tafsir,Theme" help:"Contribution type"`
	RelatedID int64  `arg:"" name:"related-id" help:"Id of the entity the contribution targets"`
	Content   string `arg:"" help:"Proposed content"`
}

func (c *ModSubmitCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	result, err := s.mod.Submit(s.actor, moderation.Type(c.Type), c.RelatedID, c.Content)
	if err != nil {
		return err
	}
	if result.SelfCertified {
		fmt.Println("Applied directly (self-certified)")
		return nil
	}
	fmt.Printf("Submitted contribution %s (Pending)\n", result.Contribution.ID)
	return nil
}

// ModQueueCmd lists the review queue.
type ModQueueCmd struct{}

func (c *ModQueueCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	pending, err := s.mod.ListPending(s.actor)
	if err != nil {
		return err
	}
	for _, p := range pending {
		fmt.Printf("%s  %s  user %d  related %d\n  %s\n",
			p.ID, p.Type, p.UserID, p.RelatedID, p.Content)
	}
	fmt.Printf("%d pending\n", len(pending))
	return nil
}

// ModApproveCmd approves one contribution.
type ModApproveCmd struct {
	ID string `arg:"" help:"Contribution id"`
}

func (c *ModApproveCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	contrib, err := s.mod.Approve(s.actor, c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Approved %s (%s)\n", contrib.ID, contrib.Type)
	return nil
}

// ModRejectCmd rejects one contribution.
type ModRejectCmd struct {
	ID string `arg:"" help:"Contribution id"`
}

func (c *ModRejectCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	contrib, err := s.mod.Reject(s.actor, c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Rejected %s (%s)\n", contrib.ID, contrib.Type)
	return nil
}

// BackupGroup contains backup export and import.
type BackupGroup struct {
	Export BackupExportCmd `cmd:"" help:"Export your annotations to a backup file"`
	Import BackupImportCmd `cmd:"" help:"Import a backup file into your account"`
}

// BackupExportCmd writes the actor's annotation state to a file.
type BackupExportCmd struct {
	Out string `required:"" help:"Output file path" type:"path"`
}

func (c *BackupExportCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	doc, err := s.exchange.Export(s.actor)
	if err != nil {
		return err
	}
	if err := backup.WriteFile(c.Out, doc); err != nil {
		return err
	}
	fmt.Printf("Exported document %s to %s\n", doc.ID, c.Out)
	return nil
}

// BackupImportCmd restores a backup file into the actor's account.
type BackupImportCmd struct {
	Path string `arg:"" help:"Backup file path" type:"existingfile"`
}

func (c *BackupImportCmd) Run() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	doc, err := backup.ReadFile(c.Path)
	if err != nil {
		return err
	}
	report, err := s.exchange.Import(s.actor, doc)
	if err != nil {
		return err
	}
	if !report.Applied {
		fmt.Println("Import rejected; nothing was changed:")
		for _, d := range report.Diagnostics {
			fmt.Printf("  ! %s\n", d)
		}
		return fmt.Errorf("import rejected with %d diagnostic(s)", len(report.Diagnostics))
	}
	for kind, n := range report.Counts {
		fmt.Printf("  %s: %d\n", kind, n)
	}
	fmt.Println("Import applied")
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("alfurqan %s (sqlite driver: %s)\n", version, info.DriverName)
	return nil
}

func initLogging() {
	level := logging.LevelWarn
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "info":
		level = logging.LevelInfo
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("alfurqan"),
		kong.Description("al-Furqan - word-indexed Quran study store"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
