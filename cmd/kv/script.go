package kv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/kvs"
	"github.com/ValentinKolb/fKV/lib/kvs/cache"
)

// openBoundaryArg stands for kvs.OpenBoundaryKey in scan commands
const openBoundaryArg = "-"

// session executes script commands against a store. Reads, writes and
// deletes go through the cache if there is one.
type session struct {
	store kvs.Store
	cache *cache.Cache
	out   io.Writer
}

// errUsage is returned for malformed commands, it aborts the script
var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

// run executes one command per line. Empty lines and lines starting with #
// are ignored. Store errors are printed and execution continues, malformed
// commands abort the script.
func (s *session) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := s.exec(strings.Fields(text)); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// report prints the outcome of a store operation that returned err.
// Expected outcomes (missing key, empty range) print their code.
func (s *session) report(err error) {
	switch kvs.CodeOf(err) {
	case kvs.RetCSuccess:
		s.printf("OK")
	case kvs.RetCKeyDoesNotExist, kvs.RetCNoKeyInRange, kvs.RetCNoNextKey:
		s.printf("(%s)", kvs.CodeOf(err))
	default:
		s.printf("error: %v", err)
	}
}

func (s *session) exec(args []string) error {
	switch cmd := strings.ToLower(args[0]); cmd {
	case "put":
		if len(args) < 3 {
			return usage("put <key> <value>")
		}
		s.report(s.put([]byte(args[1]), []byte(strings.Join(args[2:], " "))))

	case "get":
		if len(args) != 2 {
			return usage("get <key>")
		}
		val, err := s.get([]byte(args[1]))
		if err != nil {
			s.report(err)
		} else {
			s.printf("%s", val)
		}

	case "del":
		if len(args) != 2 {
			return usage("del <key>")
		}
		s.report(s.del([]byte(args[1])))

	case "findorcreate":
		if len(args) < 3 {
			return usage("findorcreate <key> <value>")
		}
		existing, found, err := s.store.FindOrCreate([]byte(args[1]), []byte(strings.Join(args[2:], " ")))
		switch {
		case err != nil:
			s.report(err)
		case !found:
			s.printf("inserted")
		case existing == nil:
			s.printf("found (deleted)")
		default:
			s.printf("found: %s", existing)
		}

	case "scan":
		if len(args) != 3 && len(args) != 4 {
			return usage("scan <begin|-> <end|-> [bounds: [] [) (] ()]")
		}
		bounds := "[]"
		if len(args) == 4 {
			bounds = args[3]
		}
		if len(bounds) != 2 || !strings.ContainsRune("[(", rune(bounds[0])) || !strings.ContainsRune("])", rune(bounds[1])) {
			return usage("bounds must be one of [] [) (] ()")
		}
		s.scan(scanBound(args[1]), bounds[0] == '[', scanBound(args[2]), bounds[1] == ']')

	case "maintenance":
		s.store.Maintenance()
		s.printf("OK")

	case "location":
		s.printf("%s", util.FormatLocation(s.store.Location()))

	case "info":
		data, err := json.MarshalIndent(s.store.Info(), "", "  ")
		if err != nil {
			return err
		}
		s.printf("%s", data)

	default:
		return usage(fmt.Sprintf("unknown command %q", cmd))
	}
	return nil
}

func scanBound(arg string) []byte {
	if arg == openBoundaryArg {
		return kvs.OpenBoundaryKey
	}
	return []byte(arg)
}

func (s *session) put(key, val []byte) error {
	if s.cache != nil {
		return s.cache.Put(key, val)
	}
	return s.store.Put(key, val)
}

func (s *session) get(key []byte) ([]byte, error) {
	if s.cache != nil {
		return s.cache.Get(key)
	}
	return s.store.Get(key)
}

func (s *session) del(key []byte) error {
	if s.cache != nil {
		return s.cache.Del(key)
	}
	return s.store.Del(key)
}

func (s *session) scan(begin []byte, beginIncl bool, end []byte, endIncl bool) {
	iter, key, val, err := s.store.Scan(begin, beginIncl, end, endIncl)
	if err != nil {
		s.report(err)
		return
	}
	for {
		s.printf("%s = %s", key, val)
		key, val, err = s.store.GetNext(iter)
		if errors.Is(err, kvs.ErrNoNextKey) {
			return
		}
		if err != nil {
			s.report(err)
			return
		}
	}
}
